package app

import (
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
)

type Repos struct {
	User        repos.UserRepo
	Product     repos.ProductRepo
	Bundle      repos.BundleRepo
	Offer       repos.OfferRepo
	ChatThread  repos.ChatThreadRepo
	ChatMessage repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Product:     repos.NewProductRepo(db, log),
		Bundle:      repos.NewBundleRepo(db, log),
		Offer:       repos.NewOfferRepo(db, log),
		ChatThread:  repos.NewChatThreadRepo(db, log),
		ChatMessage: repos.NewChatMessageRepo(db, log),
	}
}
