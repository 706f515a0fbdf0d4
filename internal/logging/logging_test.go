package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", FormatText, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("strategy", "GRASP").Debug("worker done")
	assert.Contains(t, buf.String(), "strategy=GRASP")
	assert.Contains(t, buf.String(), `msg="worker done"`)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	log.WithField("efficiency", 3.5).Info("best")
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "best", entry["msg"])
	assert.Equal(t, 3.5, entry["efficiency"])
}

func TestNew_Errors(t *testing.T) {
	_, err := New("loud", FormatText, &bytes.Buffer{})
	require.Error(t, err)
	_, err = New("info", Format("xml"), &bytes.Buffer{})
	require.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := logrus.New()
	assert.Same(t, l, OrDiscard(l))
}
