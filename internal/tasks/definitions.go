package tasks

import (
	"github.com/orderzap/orderzap/internal/services"
)

// Deps carries the outbound clients task handlers need
type Deps struct {
	Whatsapp *services.WhatsappService
	Email    *services.EmailService
	Bling    *services.BlingService
}

// DefineTasks wires dependencies into the task singletons and registers
// all available tasks
func DefineTasks(deps Deps) {
	SendConfirmationTask.whatsapp = deps.Whatsapp
	SendConfirmationTask.email = deps.Email
	SyncErpOrderTask.bling = deps.Bling

	RegisterHandler(SendConfirmationTask.TaskID(), SendConfirmationTask.HandleExecution)
	RegisterHandler(SyncErpOrderTask.TaskID(), SyncErpOrderTask.HandleExecution)
	RegisterHandler(SubscriptionSweepTask.TaskID(), SubscriptionSweepTask.HandleExecution)
}
