package gemini

import (
	"context"
	"errors"
	"testing"

	"sipsync/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestNewClientWithoutKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "")
	assert.True(t, common.IsConfigError(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind common.CollaboratorKind
	}{
		{"blocked", &genai.BlockedError{}, common.KindDeclined},
		{"api", &googleapi.Error{Code: 429}, common.KindStatus},
		{"network", errors.New("connection reset"), common.KindUnreachable},
		{"deadline", context.DeadlineExceeded, common.KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, ok := common.AsCollaboratorError(classify(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.Equal(t, "gemini", ce.Collaborator)
		})
	}
}
