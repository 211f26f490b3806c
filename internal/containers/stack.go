// Package containers starts the portal's backing services in Docker for
// integration tests and local development.
package containers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultDBImage      = "mariadb:11.4"
	DefaultAuthzImage   = "lakhansamani/authorizer:1.4.4"
	DefaultElasticImage = "docker.elastic.co/elasticsearch/elasticsearch:8.17.0"
	DefaultRedisImage   = "redis:7.4-alpine"

	dbAlias    = "database"
	authzAlias = "authorizer"
)

// Options name the images and credentials of the stack.
type Options struct {
	DBImage        string
	DBRootPassword string
	DBDatabase     string
	DBUser         string
	DBPassword     string

	AuthzImage       string
	AuthzClientID    string
	AuthzAdminSecret string
	AuthzDatabase    string

	ElasticImage string
	RedisImage   string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// OptionsFromEnv reads the stack options from the environment.
func OptionsFromEnv() Options {
	return Options{
		DBImage:          getEnv("DB_IMAGE", DefaultDBImage),
		DBRootPassword:   getEnv("DB_ROOT_PASSWORD", "root"),
		DBDatabase:       getEnv("DB_DATABASE", "designsafe"),
		DBUser:           getEnv("DB_USER", "designsafe"),
		DBPassword:       getEnv("DB_PASSWORD", "designsafe"),
		AuthzImage:       getEnv("AUTHZ_IMAGE", DefaultAuthzImage),
		AuthzClientID:    getEnv("AUTHZ_CLIENT_ID", "portal-data"),
		AuthzAdminSecret: getEnv("AUTHZ_ADMIN_SECRET", "admin"),
		AuthzDatabase:    getEnv("AUTHZ_DATABASE", "authorizer"),
		ElasticImage:     getEnv("ES_IMAGE", DefaultElasticImage),
		RedisImage:       getEnv("REDIS_IMAGE", DefaultRedisImage),
	}
}

// Stack is a running set of backing services on one network.
type Stack struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Authorizer testcontainers.Container
	Elastic    testcontainers.Container
	Redis      testcontainers.Container

	// Env holds the service's environment for reaching the stack from the host.
	Env map[string]string
}

// Terminate stops every started container and removes the network.
func (s *Stack) Terminate(ctx context.Context) error {
	var errs []error
	for _, c := range []testcontainers.Container{s.Redis, s.Elastic, s.Authorizer, s.DB} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			errs = append(errs, fmt.Errorf("remove network: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EnvLines renders Env as sorted KEY=VALUE lines.
func (s *Stack) EnvLines() []string {
	lines := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		lines = append(lines, k+"="+v)
	}
	sort.Strings(lines)
	return lines
}

func endpoint(ctx context.Context, c testcontainers.Container, port nat.Port) (string, string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", "", err
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return "", "", err
	}
	return host, mapped.Port(), nil
}

// StartElasticsearch starts a single node without security and returns its URL.
// networkName may be empty.
func StartElasticsearch(ctx context.Context, image, networkName string) (testcontainers.Container, string, error) {
	port := nat.Port("9200/tcp")
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = 1 << 30
		},
		WaitingFor: wait.ForHTTP("/").WithPort(port).WithStartupTimeout(2 * time.Minute),
	}
	if networkName != "" {
		req.Networks = []string{networkName}
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start elasticsearch: %w", err)
	}
	host, p, err := endpoint(ctx, c, port)
	if err != nil {
		return c, "", err
	}
	return c, fmt.Sprintf("http://%s:%s", host, p), nil
}

// Start brings up MariaDB, the Authorizer, Elasticsearch and Redis. On error the
// containers already started are terminated.
func Start(ctx context.Context, opts Options, log *logger.Logger) (*Stack, error) {
	stack := &Stack{Env: map[string]string{}}
	started := false
	defer func() {
		if started {
			return
		}
		if err := stack.Terminate(context.Background()); err != nil {
			log.Warn("cleanup after failed start", "error", err)
		}
	}()

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	stack.Network = nw

	if err := stack.startDB(ctx, opts, log); err != nil {
		return nil, err
	}
	if err := stack.startAuthorizer(ctx, opts, log); err != nil {
		return nil, err
	}

	es, esURL, err := StartElasticsearch(ctx, opts.ElasticImage, nw.Name)
	stack.Elastic = es
	if err != nil {
		return nil, err
	}
	stack.Env["ES_HOSTS"] = esURL
	log.Info("elasticsearch started", "url", esURL)

	redisPort := nat.Port("6379/tcp")
	stack.Redis, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.RedisImage,
			ExposedPorts: []string{string(redisPort)},
			WaitingFor:   wait.ForListeningPort(redisPort).WithStartupTimeout(30 * time.Second),
			Networks:     []string{nw.Name},
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}
	host, port, err := endpoint(ctx, stack.Redis, redisPort)
	if err != nil {
		return nil, err
	}
	stack.Env["REDIS_ADDR"] = host + ":" + port
	log.Info("redis started", "addr", stack.Env["REDIS_ADDR"])

	started = true
	return stack, nil
}

func (s *Stack) startDB(ctx context.Context, opts Options, log *logger.Logger) error {
	port := nat.Port("3306/tcp")
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.DBImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": opts.DBRootPassword,
				"MYSQL_DATABASE":      opts.DBDatabase,
				"MYSQL_USER":          opts.DBUser,
				"MYSQL_PASSWORD":      opts.DBPassword,
			},
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
			Networks:       []string{s.Network.Name},
			NetworkAliases: map[string][]string{s.Network.Name: {dbAlias}},
		},
		Started: true,
	})
	s.DB = c
	if err != nil {
		return fmt.Errorf("start database: %w", err)
	}

	host, mapped, err := endpoint(ctx, c, port)
	if err != nil {
		return err
	}
	if err := createDatabase(ctx, host, mapped, opts.DBRootPassword, opts.AuthzDatabase); err != nil {
		return err
	}

	s.Env["DB_TYPE"] = "mariadb"
	s.Env["DB_HOST"] = host
	s.Env["DB_PORT"] = mapped
	s.Env["DB_DATABASE"] = opts.DBDatabase
	s.Env["DB_USER"] = opts.DBUser
	s.Env["DB_PASSWORD"] = opts.DBPassword
	log.Info("database started", "host", host, "port", mapped)
	return nil
}

// createDatabase makes the Authorizer's schema next to the portal's.
func createDatabase(ctx context.Context, host, port, rootPassword, name string) error {
	cfg := mysql.NewConfig()
	cfg.User = "root"
	cfg.Passwd = rootPassword
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("database not ready after 30 seconds: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

func (s *Stack) startAuthorizer(ctx context.Context, opts Options, log *logger.Logger) error {
	port := nat.Port("8080/tcp")
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.AuthzImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     opts.AuthzClientID,
				"PORT":          port.Port(),
				"DATABASE_TYPE": "mariadb",
				"DATABASE_NAME": opts.AuthzDatabase,
				"DATABASE_URL":  fmt.Sprintf("root:%s@tcp(%s:3306)/%s", opts.DBRootPassword, dbAlias, opts.AuthzDatabase),
				"ADMIN_SECRET":  opts.AuthzAdminSecret,
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
			},
			WaitingFor:     wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:       []string{s.Network.Name},
			NetworkAliases: map[string][]string{s.Network.Name: {authzAlias}},
		},
		Started: true,
	})
	s.Authorizer = c
	if err != nil {
		return fmt.Errorf("start authorizer: %w", err)
	}

	host, mapped, err := endpoint(ctx, c, port)
	if err != nil {
		return err
	}
	s.Env["AUTHZ_URL"] = fmt.Sprintf("http://%s:%s", host, mapped)
	s.Env["AUTHZ_CLIENT_ID"] = opts.AuthzClientID
	log.Info("authorizer started", "url", s.Env["AUTHZ_URL"])
	return nil
}
