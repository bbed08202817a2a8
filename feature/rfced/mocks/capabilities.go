package mocks

import (
	"context"

	"doc-sync/feature/docs"

	"github.com/stretchr/testify/mock"
)

// Archiver is a mock implementation of rfced.Archiver
type Archiver struct {
	mock.Mock
}

func (m *Archiver) MoveDraftFilesToArchive(ctx context.Context, doc *docs.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// Mailer is a mock implementation of rfced.Mailer
type Mailer struct {
	mock.Mock
}

func (m *Mailer) SendMail(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}
