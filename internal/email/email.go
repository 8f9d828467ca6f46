// Package email defines the outbound email collaborator consumed by the
// auth flows, with a Postmark implementation and an in-memory mock.
package email

import (
	"context"

	"github.com/markmcclatchy/auth-service/internal/model"
)

// Client delivers transactional email. Flows treat delivery failure as an
// unexpected error; they never retry.
type Client interface {
	Send(ctx context.Context, recipient model.Email, subject, content string) error
}
