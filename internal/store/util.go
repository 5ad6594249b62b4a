package store

import (
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

func gocqlUUID(id uuid.UUID) gocql.UUID {
	return gocql.UUID(id)
}
