package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey        []byte
		SendgridApiKey   string
		RollbarToken     string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address

		// NotesEnabled is the institution-wide grading toggle; every
		// per-group permission is AND-ed with it.
		NotesEnabled bool

		Server   ServerConfig
		Database DatabaseConfig
		Academia AcademiaConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// AcademiaConfig holds the endpoint URLs of the academic-records upstream.
	// All of its endpoints are session-cookie authenticated.
	AcademiaConfig struct {
		CycleURL     string // GET  -> {ok, cicloActual}
		DocenteIDURL string // GET  -> {IDReferencia}
		GroupsURL    string // POST {iddocente, ciclo} -> {data: [...]}
		RosterURL    string // base; /{idgrupo}/estudiantes and /{idgrupo}/notas
		ReportURL    string // POST {ciclo, idgrupo?, cuota?} -> {data: [...]}
		ConfigURL    string // base; /{iddocente}/permisos-grupo/{idgrupo}
		Timeout      time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "PortalDocente")
	conf.SetDefault("secretKey", "h^$cegm2emy-poq5(wer)enb$+57=dz&uoxh2(h!x)#*c2#yg4")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("notesEnabled", true)

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugHost", "localhost:8001")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "portaldocente")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "portaldocente")
	conf.SetDefault("databasePassword", "portaldocente")
	conf.SetDefault("databaseDisableTLS", true)

	conf.SetDefault("academiaCycleURL", "https://localhost:9000/api/ciclo-actual")
	conf.SetDefault("academiaDocenteIDURL", "https://localhost:9000/api/protegido/id")
	conf.SetDefault("academiaGroupsURL", "https://localhost:9000/api/grupos")
	conf.SetDefault("academiaRosterURL", "https://localhost:9000/api/grupos")
	conf.SetDefault("academiaReportURL", "https://localhost:9000/api/reportes")
	conf.SetDefault("academiaConfigURL", "https://localhost:9000/api/configuracion")
	conf.SetDefault("academiaTimeout", 15*time.Second)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		SecretKey:        []byte(conf.GetString("secretKey")),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},
		NotesEnabled:     conf.GetBool("notesEnabled"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Academia: AcademiaConfig{
			CycleURL:     conf.GetString("academiaCycleURL"),
			DocenteIDURL: conf.GetString("academiaDocenteIDURL"),
			GroupsURL:    conf.GetString("academiaGroupsURL"),
			RosterURL:    conf.GetString("academiaRosterURL"),
			ReportURL:    conf.GetString("academiaReportURL"),
			ConfigURL:    conf.GetString("academiaConfigURL"),
			Timeout:      conf.GetDuration("academiaTimeout"),
		},
	}
}
