package sqlite_test

import (
	"testing"

	"github.com/cwrk-planet/trome-service/internal/repository/repotest"
	"github.com/cwrk-planet/trome-service/internal/repository/sqlite"
)

func TestContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Stores {
		db := openDB(t)
		return repotest.Stores{
			Rooms:    sqlite.NewRoomRepo(db),
			Users:    sqlite.NewUserRepo(db),
			Profiles: sqlite.NewProfileRepo(db),
		}
	})
}
