package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNotifyWorkflowEvent = "workflow.event.notify"

type NotifyWorkflowEventPayload struct {
	EventID  string `json:"eventId"`
	TicketID string `json:"ticketId"`
}

func NewNotifyWorkflowEventTask(payload NotifyWorkflowEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyWorkflowEvent, data), nil
}

func ParseNotifyWorkflowEventPayload(task *asynq.Task) (NotifyWorkflowEventPayload, error) {
	var payload NotifyWorkflowEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotifyWorkflowEventPayload{}, err
	}
	return payload, nil
}
