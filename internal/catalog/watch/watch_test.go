package watch

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	"github.com/stretchr/testify/mock"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testCases := []struct {
		name       string
		newMockMsg func() *mockAckableMsg
	}{
		{
			name: "valid event is acked",
			newMockMsg: func() *mockAckableMsg {
				payload, _ := json.Marshal(events.NewProductEvent(events.ProductCreated, 1, "ABC123"))
				msg := new(mockAckableMsg)
				msg.On("Data").Return(payload).Times(1)
				msg.On("Subject").Return("catalog.products.created")
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
		},
		{
			name: "garbage is terminated",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Subject").Return("catalog.products.created")
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
		},
		{
			name: "event without type is terminated",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(`{"product_id":1}`)).Times(1)
				msg.On("Subject").Return("catalog.products.created")
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockMsg := tc.newMockMsg()

			// when
			handleMessage(mockMsg, logger)

			// then
			mockMsg.AssertExpectations(t)
		})
	}
}
