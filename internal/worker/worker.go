package worker

import (
	"context"

	"github.com/trukapp/truka/internal/helper"
	"github.com/trukapp/truka/internal/repository"
	"github.com/trukapp/truka/internal/smtp"
	"github.com/trukapp/truka/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Ctx         context.Context
	Helper      *helper.HelperRepository
	Mailer      smtp.MailerInterface
}

const (
	// orderAlertGroupID is used for workers that alert shippers whenever one of their orders moves to a new status
	orderAlertGroupID = "order-alert-group"
)

// Our workers typically need access to the database and kafka event stream
// worker-specific dependency can be passed as argument to the worker
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Ctx:         wk.Ctx,
		Helper:      wk.Helper,
		Mailer:      wk.Mailer,
	}
}
