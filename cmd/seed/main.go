// Command seed fills postgres storage with random users and messages between them
package main

import (
	"context"
	"direct-messages-api/internal/logging"
	"direct-messages-api/internal/storage"
	"direct-messages-api/internal/storage/postgres"
	"fmt"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"log"
	"math/rand"
	"strings"
	"time"
)

// config defines seeding parameters parsed from environment variables
type config struct {
	Users           int `env:"SEED_USERS" envDefault:"20"`
	MessagesPerUser int `env:"SEED_MESSAGES_PER_USER" envDefault:"5"`
}

var words = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor
	incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud exercitation ullamco`)

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(logging.Config{})
	if err != nil {
		log.Fatalf("logging.New: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		sugar.Fatalf("Cannot parse seed env config: %v", err)
	}
	storageCfg := storage.Config{}
	if err := env.Parse(&storageCfg); err != nil {
		sugar.Fatalf("Cannot parse storage env config: %v", err)
	}

	ctx := context.Background()
	s, err := postgres.New(ctx, sugar, storageCfg.DSN(), postgres.ConnectionTimeout(30*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}
	defer s.Close()

	users, err := randomUsers(cfg.Users)
	if err != nil {
		sugar.Fatalf("Cannot generate users: %v", err)
	}
	n, err := s.BulkCreateUsers(ctx, users)
	if err != nil {
		sugar.Fatalf("Cannot insert users: %v", err)
	}
	sugar.Infof("Inserted %d users", n)

	ids, err := s.UserIDs(ctx)
	if err != nil {
		sugar.Fatalf("Cannot load user ids: %v", err)
	}
	if len(ids) < 2 {
		sugar.Info("Not enough users to exchange messages")
		return
	}

	n, err = s.BulkCreateMessages(ctx, randomMessages(ids, cfg.MessagesPerUser))
	if err != nil {
		sugar.Fatalf("Cannot insert messages: %v", err)
	}
	sugar.Infof("Inserted %d messages", n)
}

func randomUsers(n int) ([]storage.NewUser, error) {
	users := make([]storage.NewUser, 0, n)
	for i := 0; i < n; i++ {
		name := sentence(2)
		hash, err := bcrypt.GenerateFromPassword([]byte(sentence(1)+fmt.Sprint(rand.Intn(1000))), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		users = append(users, storage.NewUser{
			Username: name,
			Email:    fmt.Sprintf("%s.%d@example.com", strings.ReplaceAll(name, " ", "."), rand.Intn(100000)),
			Password: string(hash),
			Status:   rand.Intn(2) == 1,
		})
	}
	return users, nil
}

// randomMessages sends perUser messages from every user to random other users
func randomMessages(ids []int64, perUser int) []storage.NewMessage {
	messages := make([]storage.NewMessage, 0, len(ids)*perUser)
	for _, sender := range ids {
		for i := 0; i < perUser; i++ {
			receiver := ids[rand.Intn(len(ids))]
			for receiver == sender {
				receiver = ids[rand.Intn(len(ids))]
			}
			messages = append(messages, storage.NewMessage{
				SenderID:   sender,
				ReceiverID: receiver,
				Subject:    sentence(3 + 2*rand.Intn(3)),
				Body:       sentence(20),
			})
		}
	}
	return messages
}

func sentence(n int) string {
	picked := make([]string, n)
	for i := range picked {
		picked[i] = words[rand.Intn(len(words))]
	}
	return strings.Join(picked, " ")
}
