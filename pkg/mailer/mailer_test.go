package mailer

import (
	"errors"
	"net/smtp"
	"testing"

	"anoa.com/learnhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutHostIsNoop(t *testing.T) {
	m := New(Config{}, logger.Nop())
	_, ok := m.(noopMailer)
	assert.True(t, ok)
	m.Send("a@example.com", "hi", "body")
}

func TestDeliverBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := New(Config{Host: "smtp.example.com", Port: "2525", User: "bot@example.com"}, logger.Nop()).(*smtpMailer)
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.deliver("student@example.com", "Welcome", "Hello"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"student@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Welcome\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nHello\r\n")
}

func TestDeliverPropagatesError(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: "25"}, logger.Nop()).(*smtpMailer)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	assert.EqualError(t, m.deliver("x@example.com", "s", "b"), "refused")
}
