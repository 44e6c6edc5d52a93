package seeders

import (
	"time"

	"github.com/trukapp/truka/internal/repository"
)

const defaultTimeout = 5 * time.Second

type Seeder struct {
	DB repository.Database
}

func New(DB repository.Database) *Seeder {
	return &Seeder{
		DB: DB,
	}
}

func (seeder *Seeder) Run() {
	adminID := seeder.seedAdminUser()
	seeder.seedDemoOrders(adminID)
}
