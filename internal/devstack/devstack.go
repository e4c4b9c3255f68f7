// devstack.go
//
// Records management and archival governance data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recordsdb.
// recordsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recordsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recordsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package devstack runs the containers recordsdb depends on (database, NATS
// and optionally Authorizer plus a recordsdb image) for integration tests and
// local end-to-end work.
//
// Settings come from the same variables the server reads, see FromEnv.
package devstack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Network aliases the containers answer to inside the stack network.
const (
	DBAlias         = "db"
	NATSAlias       = "nats"
	AuthorizerAlias = "authorizer"
)

// Options configures Start.
type Options struct {
	DBType       string // postgres, mysql or mariadb
	DBImage      string
	DBPort       string
	Database     string
	User         string
	Password     string
	RootPassword string

	NATSImage string

	// Authorizer starts only when AuthzImage is set.
	AuthzImage       string
	AuthzPort        string
	AuthzClientID    string
	AuthzAdminSecret string
	AuthzDatabase    string

	// ServiceImage runs a recordsdb image on the network when it exists
	// locally. Debug exposes a delve listener on 127.0.0.1:2345.
	ServiceImage string
	ServicePort  string
	Debug        bool

	// Logf receives progress messages.
	Logf func(format string, args ...any)
}

// FromEnv reads Options from the environment, filling defaults for a local
// postgres stack.
func FromEnv() Options {
	debug, _ := strconv.ParseBool(os.Getenv("DEBUG_CONTAINER"))
	o := Options{
		DBType:           getEnv("DB_TYPE", "postgres"),
		DBImage:          os.Getenv("DB_IMAGE"),
		DBPort:           os.Getenv("DB_PORT"),
		Database:         getEnv("DB_DATABASE", "records"),
		User:             getEnv("DB_APP_USER", "records"),
		Password:         getEnv("DB_APP_PASSWORD", "records"),
		RootPassword:     getEnv("DB_ROOT_PASSWORD", "root"),
		NATSImage:        getEnv("NATS_IMAGE", "nats:2.12-alpine"),
		AuthzImage:       os.Getenv("AUTHZ_IMAGE"),
		AuthzPort:        getEnv("AUTHZ_PORT", "8080"),
		AuthzClientID:    os.Getenv("AUTHZ_CLIENT_ID"),
		AuthzAdminSecret: os.Getenv("AUTHZ_ADMIN_SECRET"),
		AuthzDatabase:    getEnv("AUTHZ_DATABASE", "authorizer"),
		ServiceImage:     os.Getenv("SERVICE_IMAGE"),
		ServicePort:      getEnv("PORT", "3000"),
		Debug:            debug,
	}
	o.applyDefaults()
	return o
}

func (o *Options) applyDefaults() {
	switch o.DBType {
	case "mysql", "mariadb":
		if o.DBImage == "" {
			o.DBImage = "mariadb:11"
		}
		if o.DBPort == "" {
			o.DBPort = "3306"
		}
	default:
		if o.DBImage == "" {
			o.DBImage = "postgres:16-alpine"
		}
		if o.DBPort == "" {
			o.DBPort = "5432"
		}
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
}

// Stack holds the running containers.
type Stack struct {
	opts Options

	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	NATS       testcontainers.Container
	Authorizer testcontainers.Container
	Service    testcontainers.Container

	dbHost     string
	dbPort     string
	natsURL    string
	authzURL   string
	serviceURL string
}

// Start brings the stack up. On failure every container already started is
// terminated.
func Start(ctx context.Context, opts Options) (_ *Stack, err error) {
	opts.applyDefaults()
	s := &Stack{opts: opts}
	defer func() {
		if err != nil {
			_ = s.Terminate(context.WithoutCancel(ctx))
		}
	}()

	if s.Network, err = network.New(ctx); err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	if err = s.startDB(ctx); err != nil {
		return nil, err
	}
	if err = s.startNATS(ctx); err != nil {
		return nil, err
	}
	if opts.AuthzImage != "" {
		if err = s.startAuthorizer(ctx); err != nil {
			return nil, err
		}
	}
	if opts.ServiceImage != "" {
		if err = s.startService(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Stack) networkRequest(alias string) ([]string, map[string][]string) {
	name := s.Network.Name
	return []string{name}, map[string][]string{name: {alias}}
}

func (s *Stack) startDB(ctx context.Context) error {
	port, err := nat.NewPort("tcp", s.opts.DBPort)
	if err != nil {
		return fmt.Errorf("db port: %w", err)
	}
	networks, aliases := s.networkRequest(DBAlias)
	s.DB, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          s.opts.DBImage,
			ExposedPorts:   []string{string(port)},
			Env:            dbInitEnv(s.opts),
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
			Networks:       networks,
			NetworkAliases: aliases,
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start database: %w", err)
	}

	if s.dbHost, err = s.DB.Host(ctx); err != nil {
		return err
	}
	mapped, err := s.DB.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	s.dbPort = mapped.Port()
	s.opts.Logf("database %s listening on %s:%s", s.opts.DBType, s.dbHost, s.dbPort)

	if s.opts.DBType == "mysql" || s.opts.DBType == "mariadb" {
		return s.initMySQL(ctx)
	}
	return nil
}

// initMySQL creates the authorizer database next to the records one.
func (s *Stack) initMySQL(ctx context.Context) error {
	mc := gomysql.NewConfig()
	mc.User = "root"
	mc.Passwd = s.opts.RootPassword
	mc.Net = "tcp"
	mc.Addr = s.dbHost + ":" + s.dbPort

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("connect to database for setup: %w", err)
	}
	defer db.Close()

	// The port opens before the server accepts logins.
	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("database not ready after 30 seconds: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", s.opts.AuthzDatabase)); err != nil {
		return fmt.Errorf("create %s: %w", s.opts.AuthzDatabase, err)
	}
	return nil
}

func (s *Stack) startNATS(ctx context.Context) error {
	port := nat.Port("4222/tcp")
	networks, aliases := s.networkRequest(NATSAlias)
	var err error
	s.NATS, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          s.opts.NATSImage,
			ExposedPorts:   []string{string(port)},
			WaitingFor:     wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
			Networks:       networks,
			NetworkAliases: aliases,
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start nats: %w", err)
	}
	host, err := s.NATS.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := s.NATS.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	s.natsURL = fmt.Sprintf("nats://%s:%s", host, mapped.Port())
	s.opts.Logf("NATS_URL=%s", s.natsURL)
	return nil
}

func (s *Stack) startAuthorizer(ctx context.Context) error {
	port, err := nat.NewPort("tcp", s.opts.AuthzPort)
	if err != nil {
		return fmt.Errorf("authorizer port: %w", err)
	}
	logLevel := "info"
	if s.opts.Debug {
		logLevel = "debug"
	}
	networks, aliases := s.networkRequest(AuthorizerAlias)
	s.Authorizer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        s.opts.AuthzImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     s.opts.AuthzClientID,
				"PORT":          s.opts.AuthzPort,
				"DATABASE_TYPE": s.opts.DBType,
				"DATABASE_NAME": s.opts.AuthzDatabase,
				"DATABASE_URL":  authzDatabaseURL(s.opts),
				"ADMIN_SECRET":  s.opts.AuthzAdminSecret,
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     logLevel,
			},
			WaitingFor:     wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:       networks,
			NetworkAliases: aliases,
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start authorizer: %w", err)
	}
	host, err := s.Authorizer.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := s.Authorizer.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	s.authzURL = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	s.opts.Logf("AUTHZ_URL=%s", s.authzURL)
	return nil
}

func (s *Stack) startService(ctx context.Context) error {
	exists, err := ImageExists(ctx, s.opts.ServiceImage)
	if err != nil {
		return fmt.Errorf("check image %s: %w", s.opts.ServiceImage, err)
	}
	if !exists {
		s.opts.Logf("image %s not found locally, skipping service container", s.opts.ServiceImage)
		return nil
	}

	port, err := nat.NewPort("tcp", s.opts.ServicePort)
	if err != nil {
		return fmt.Errorf("service port: %w", err)
	}
	exposed := []string{string(port)}
	waitFor := wait.ForHTTP("/health").WithPort(port).WithStartupTimeout(30 * time.Second)
	req := testcontainers.ContainerRequest{
		Image:        s.opts.ServiceImage,
		ExposedPorts: exposed,
		Env:          s.internalEnv(),
		WaitingFor:   waitFor,
		Networks:     []string{s.Network.Name},
	}
	if s.opts.Debug {
		req.ExposedPorts = append(req.ExposedPorts, "2345/tcp")
		req.HostConfigModifier = debugHostConfig
		req.WaitingFor = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
		req.Entrypoint = []string{
			"/usr/local/bin/dlv",
			"--listen=:2345",
			"--headless=true",
			"--api-version=2",
			"--accept-multiclient",
			"exec",
			"./recordsdb",
		}
	}

	s.Service, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	host, err := s.Service.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := s.Service.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	s.serviceURL = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	s.opts.Logf("BASE_URL=%s", s.serviceURL)
	return nil
}

func debugHostConfig(hostConfig *container.HostConfig) {
	hostConfig.PortBindings = nat.PortMap{
		"2345/tcp": []nat.PortBinding{
			{HostIP: "127.0.0.1", HostPort: "2345"},
		},
	}
	hostConfig.CapAdd = []string{"SYS_PTRACE"}
	hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
}

// Env returns the variables a recordsdb process on the host needs to use the
// stack.
func (s *Stack) Env() map[string]string {
	env := baseEnv(s.opts)
	env["DB_HOST"] = s.dbHost
	env["DB_PORT"] = s.dbPort
	env["NATS_URL"] = s.natsURL
	if s.authzURL != "" {
		env["AUTHZ_URL"] = s.authzURL
		env["AUTHZ_CLIENT_ID"] = s.opts.AuthzClientID
	} else {
		env["AUTH_DISABLED"] = "true"
	}
	return env
}

// internalEnv is Env as seen from inside the stack network.
func (s *Stack) internalEnv() map[string]string {
	env := baseEnv(s.opts)
	env["DB_HOST"] = DBAlias
	env["DB_PORT"] = s.opts.DBPort
	env["NATS_URL"] = "nats://" + NATSAlias + ":4222"
	env["PORT"] = s.opts.ServicePort
	if s.Authorizer != nil {
		env["AUTHZ_URL"] = fmt.Sprintf("http://%s:%s", AuthorizerAlias, s.opts.AuthzPort)
		env["AUTHZ_CLIENT_ID"] = s.opts.AuthzClientID
	} else {
		env["AUTH_DISABLED"] = "true"
	}
	return env
}

// ServiceURL is the base URL of the service container, empty when it did
// not start.
func (s *Stack) ServiceURL() string {
	return s.serviceURL
}

// Terminate stops every container and removes the network.
func (s *Stack) Terminate(ctx context.Context) error {
	var errs []error
	for _, c := range []testcontainers.Container{s.Service, s.Authorizer, s.NATS, s.DB} {
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

// ImageExists reports whether name is tagged in the local docker daemon.
func ImageExists(ctx context.Context, name string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == name {
				return true, nil
			}
		}
	}
	return false, nil
}

func baseEnv(o Options) map[string]string {
	return map[string]string{
		"DB_TYPE":         o.DBType,
		"DB_DATABASE":     o.Database,
		"DB_APP_USER":     o.User,
		"DB_APP_PASSWORD": o.Password,
	}
}

func dbInitEnv(o Options) map[string]string {
	switch o.DBType {
	case "mysql", "mariadb":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": o.RootPassword,
			"MYSQL_DATABASE":      o.Database,
			"MYSQL_USER":          o.User,
			"MYSQL_PASSWORD":      o.Password,
		}
	default:
		return map[string]string{
			"POSTGRES_PASSWORD": o.Password,
			"POSTGRES_USER":     o.User,
			"POSTGRES_DB":       o.Database,
		}
	}
}

func authzDatabaseURL(o Options) string {
	switch o.DBType {
	case "mysql", "mariadb":
		return fmt.Sprintf("root:%s@tcp(%s:%s)/%s", o.RootPassword, DBAlias, o.DBPort, o.AuthzDatabase)
	default:
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", o.User, o.Password, DBAlias, o.DBPort, o.Database)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
