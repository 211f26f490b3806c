package containers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("ES_IMAGE", "elasticsearch:custom")
	t.Setenv("DB_DATABASE", "")

	opts := OptionsFromEnv()
	assert.Equal(t, "elasticsearch:custom", opts.ElasticImage)
	assert.Equal(t, "designsafe", opts.DBDatabase)
	assert.Equal(t, DefaultRedisImage, opts.RedisImage)
}

func TestEnvLinesSorted(t *testing.T) {
	s := &Stack{Env: map[string]string{"REDIS_ADDR": "localhost:6379", "DB_PORT": "3306", "ES_HOSTS": "http://localhost:9200"}}
	assert.Equal(t, []string{"DB_PORT=3306", "ES_HOSTS=http://localhost:9200", "REDIS_ADDR=localhost:6379"}, s.EnvLines())
}

func TestGeneratePassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := GeneratePassword()
		assert.Len(t, p, 10)
		assert.True(t, strings.ContainsAny(p, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"), p)
		assert.True(t, strings.ContainsAny(p, "!@#$%^&*"), p)
		assert.True(t, strings.ContainsAny(p, "0123456789"), p)
	}
}
