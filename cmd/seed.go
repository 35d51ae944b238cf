package cmd

import (
	"fmt"
	"log"

	"songvault/config"
	"songvault/core/auth"
	"songvault/db"
	"songvault/model"
	"songvault/repository"
	"songvault/storage"

	"github.com/spf13/cobra"
)

type seedSong struct {
	name   string
	artist string
	cover  string
}

var demoUsers = []struct {
	email    string
	password string
	songs    []seedSong
}{
	{
		email:    "empty.user@gmail.com",
		password: "123456",
	},
	{
		email:    "demo.user@gmail.com",
		password: "123456",
		songs: []seedSong{
			{"Hammer Smashed Face", "Cannibal Corpse", "hammer-smashed-face.jpg"},
			{"Roots Bloody Roots", "Sepultura", "roots-bloody-roots.jpg"},
			{"Raining Blood", "Slayer", "raining-blood.jpg"},
			{"Black Sabbath", "Black Sabbath", "black-sabbath.jpg"},
			{"Freak on a Leash", "Korn", "freak-on-a-leash.jpg"},
			{"Pull the Plug", "Death", "pull-the-plug.jpg"},
			{"Total Destruction", "Destruction", "total-destruction.jpg"},
		},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users and songs",
	Long:  `Create the demo accounts and their song libraries. Safe to run repeatedly: existing users and songs are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect GORM: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.User{}); err != nil {
			log.Fatalf("Failed to migrate user schema: %v", err)
		}
		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		var covers storage.CoverStore
		if cfg.StorageDriver == "local" {
			local, err := storage.NewLocalStore(cfg.CoverUploadDir)
			if err != nil {
				log.Fatalf("Failed to initialize local storage: %v", err)
			}
			covers = local
		} else {
			store, err := storage.NewMinioStore(cfg)
			if err != nil {
				log.Fatalf("Failed to connect to object storage: %v", err)
			}
			covers = store
		}

		userRepo := repository.NewGormUserRepository(db.GormDB)
		songRepo := repository.NewMySQLSongRepository(db.DB)

		for _, demo := range demoUsers {
			user, err := userRepo.GetUserByEmail(demo.email)
			if err != nil {
				log.Fatalf("Failed to look up %s: %v", demo.email, err)
			}
			if user == nil {
				hash, err := auth.HashPassword(demo.password)
				if err != nil {
					log.Fatalf("Failed to hash password: %v", err)
				}
				user = &model.User{Email: demo.email, PasswordHash: hash}
				if _, err := userRepo.CreateUser(user); err != nil {
					log.Fatalf("Failed to create %s: %v", demo.email, err)
				}
				fmt.Printf("Created user %s\n", demo.email)
			} else {
				fmt.Printf("User %s already exists\n", demo.email)
			}

			for _, s := range demo.songs {
				existing, err := songRepo.FindByNameAndArtist(user.ID, s.name, s.artist)
				if err != nil {
					log.Fatalf("Failed to check for %q: %v", s.name, err)
				}
				if existing != nil {
					continue
				}
				song := &model.Song{
					UserID:   user.ID,
					Name:     s.name,
					Artist:   s.artist,
					ImageURL: covers.PublicURL(s.cover),
				}
				if _, err := songRepo.CreateSong(song); err != nil {
					log.Fatalf("Failed to create song %q: %v", s.name, err)
				}
				fmt.Printf("Created song %q by %s\n", s.name, s.artist)
			}
		}

		fmt.Println("Seed complete.")
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
