package models

import (
	"github.com/google/uuid"

	id "steward/pkg/domain"
)

func testUser() id.UserID {
	return id.UserID(uuid.New())
}
