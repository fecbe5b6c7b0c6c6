package smtp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/finletter/internal/models"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Connect() (Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Client), args.Error(1)
}

func (m *MockDialer) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockClient) Rcpt(to string) error { return m.Called(to).Error(0) }
func (m *MockClient) Quit() error { return m.Called().Error(0) }
func (m *MockClient) Close() error { return m.Called().Error(0) }
func (m *MockClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestMailer_Send(t *testing.T) {
	dialer := new(MockDialer)
	client := new(MockClient)
	body := &bufferCloser{}

	dialer.On("Connect").Return(client, nil)
	client.On("Mail", "news@letters.example.com").Return(nil)
	client.On("Rcpt", "reader@example.com").Return(nil)
	client.On("Data").Return(body, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	m := NewMailer(dialer, "news@letters.example.com")
	m.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	id, err := m.Send(context.Background(), models.Email{
		To:      "reader@example.com",
		Subject: "Weekly outlook",
		HTML:    "<p>Hello</p>",
		Headers: map[string]string{
			"List-Unsubscribe": "<https://letters.example.com/unsubscribe>",
			"From":             "spoofed@example.com",
			"X-Campaign":       "abc\r\nBcc: evil@example.com",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, id, "@letters.example.com>")
	assert.True(t, body.closed)

	msg := body.String()
	assert.Contains(t, msg, "From: news@letters.example.com\r\n")
	assert.Contains(t, msg, "To: reader@example.com\r\n")
	assert.Contains(t, msg, "Message-ID: "+id+"\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "List-Unsubscribe: <https://letters.example.com/unsubscribe>\r\n")
	assert.Contains(t, msg, "X-Campaign: abcBcc: evil@example.com\r\n")
	assert.NotContains(t, msg, "spoofed@example.com")
	assert.Contains(t, msg, "\r\n\r\n<p>Hello</p>")

	dialer.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestMailer_SendErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *MockDialer, c *MockClient)
	}{
		{
			name: "connect fails",
			setup: func(d *MockDialer, _ *MockClient) {
				d.On("Connect").Return(nil, errors.New("dial"))
			},
		},
		{
			name: "rcpt rejected",
			setup: func(d *MockDialer, c *MockClient) {
				d.On("Connect").Return(c, nil)
				c.On("Mail", mock.Anything).Return(nil)
				c.On("Rcpt", mock.Anything).Return(errors.New("550 no such user"))
				c.On("Close").Return(nil)
			},
		},
		{
			name: "data fails",
			setup: func(d *MockDialer, c *MockClient) {
				d.On("Connect").Return(c, nil)
				c.On("Mail", mock.Anything).Return(nil)
				c.On("Rcpt", mock.Anything).Return(nil)
				c.On("Data").Return(nil, errors.New("data"))
				c.On("Close").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(MockDialer)
			c := new(MockClient)
			tt.setup(d, c)

			id, err := NewMailer(d, "from@example.com").Send(context.Background(), models.Email{
				To: "to@example.com", Subject: "s", HTML: "<p/>",
			})
			assert.Error(t, err)
			assert.Empty(t, id)
		})
	}
}

func TestMailer_CanceledContext(t *testing.T) {
	d := new(MockDialer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMailer(d, "from@example.com").Send(ctx, models.Email{To: "to@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	d.AssertNotCalled(t, "Connect")
}

func TestNewMailer_DefaultsFromToSMTPUser(t *testing.T) {
	d := new(MockDialer)
	d.On("GetSMTPUser").Return("robot@example.com")

	m := NewMailer(d, "")
	assert.Equal(t, "robot@example.com", m.from)
}
