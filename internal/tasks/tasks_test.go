package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	tests := []struct {
		name            string
		taskType        string
		payload         any
		expectedPayload string
	}{
		{
			name:            "email task",
			taskType:        TypeEnrollmentEmail,
			payload:         EnrollmentPayload{UserID: 3, CourseID: 7},
			expectedPayload: `{"userId":3,"courseId":7}`,
		},
		{
			name:            "maintenance task without payload",
			taskType:        TypeRatingSnapshot,
			payload:         nil,
			expectedPayload: "",
		},
		{
			name:            "recompute for one course",
			taskType:        TypeProgressRecompute,
			payload:         ProgressRecomputePayload{CourseID: intPtr(4)},
			expectedPayload: `{"courseId":4}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, opts, err := NewTask(tt.taskType, tt.payload)

			require.NoError(t, err)
			assert.Equal(t, tt.taskType, task.Type())
			assert.Equal(t, tt.expectedPayload, string(task.Payload()))
			assert.Len(t, opts, 2)
		})
	}
}

func TestNewTask_Queue(t *testing.T) {
	_, opts, err := NewTask(TypeReviewModeratedEmail, ReviewModeratedPayload{ReviewID: 1, Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, asynq.QueueOpt, opts[0].Type())
	assert.Equal(t, QueueImmediate, opts[0].Value())

	_, opts, err = NewTask(TypeCatalogWarmup, nil)
	require.NoError(t, err)
	assert.Equal(t, QueueDefault, opts[0].Value())
}

func TestNewTask_MarshalError(t *testing.T) {
	_, _, err := NewTask(TypeEnrollmentEmail, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal email:enrollment payload")
}

func TestDecode(t *testing.T) {
	var payload SubmissionGradedPayload
	err := Decode(asynq.NewTask(TypeSubmissionGradedEmail, []byte(`{"submissionId":12}`)), &payload)
	require.NoError(t, err)
	assert.Equal(t, 12, payload.SubmissionID)

	err = Decode(asynq.NewTask(TypeSubmissionGradedEmail, []byte(`{`)), &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email:submission_graded payload")
}

func TestQueues(t *testing.T) {
	queues := Queues()
	assert.Equal(t, 5, queues[QueueImmediate])
	assert.Equal(t, 1, queues[QueueDefault])
}

func intPtr(v int) *int {
	return &v
}
