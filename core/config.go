package core

import (
	"fmt"
	"log"
	"net"
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
		Env              string
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Payment  PaymentConfig
		Grading  GradingConfig
		Report   ReportConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		DSN           string // sqlite only
	}

	PaymentConfig struct {
		Provider          string // simulated | midtrans
		Amount            int64
		Currency          string
		MidtransServerKey string
		MidtransProd      bool
	}

	GradingConfig struct {
		DefaultScale string
		ClassScales  map[string]string // {class: scale name}
	}

	ReportConfig struct {
		SchoolMotto  string
		AcademicYear string
		Term         string
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

func (c *Config) SetDefaultFromEmail(addr string) {
	c.defaultFromEmail = addr
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ScaleFor returns the name of the grade scale used for the given class.
func (c GradingConfig) ScaleFor(class string) string {
	if name, ok := c.ClassScales[CleanString(class, true /* lower */)]; ok {
		return name
	}
	return c.DefaultScale
}

// NewConfig loads the app configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed by the current env, e.g. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Matokeo")
	v.SetDefault("secretKey", "k3v9-u8)wqb$+12=zz&aoxm7(h!y)#*d4(#rg6h^$lefm1emq")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Matokeo <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "127.0.0.1:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "matokeo")
	v.SetDefault("database.user", "matokeo")
	v.SetDefault("database.password", "matokeo")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.dsn", "file:matokeo.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")

	v.SetDefault("payment.provider", "simulated")
	v.SetDefault("payment.amount", 500)
	v.SetDefault("payment.currency", "UGX")
	v.SetDefault("payment.midtransServerKey", "")
	v.SetDefault("payment.midtransProd", false)

	v.SetDefault("grading.defaultScale", "O-Level")
	v.SetDefault("grading.classScales", "S.1=O-Level,S.2=O-Level,S.3=O-Level,S.4=O-Level,S.5=A-Level,S.6=A-Level")

	v.SetDefault("report.schoolMotto", "Excellence in Education")
	v.SetDefault("report.academicYear", fmt.Sprint(time.Now().Year()))
	v.SetDefault("report.term", "First Term")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			DSN:           v.GetString("database.dsn"),
		},
		Payment: PaymentConfig{
			Provider:          v.GetString("payment.provider"),
			Amount:            v.GetInt64("payment.amount"),
			Currency:          v.GetString("payment.currency"),
			MidtransServerKey: v.GetString("payment.midtransServerKey"),
			MidtransProd:      v.GetBool("payment.midtransProd"),
		},
		Grading: GradingConfig{
			DefaultScale: v.GetString("grading.defaultScale"),
			ClassScales:  parseClassScales(v.GetString("grading.classScales")),
		},
		Report: ReportConfig{
			SchoolMotto:  v.GetString("report.schoolMotto"),
			AcademicYear: v.GetString("report.academicYear"),
			Term:         v.GetString("report.term"),
		},
	}
}

// parseClassScales parses "S.1=O-Level,S.5=A-Level" into {"s.1": "O-Level", "s.5": "A-Level"}.
func parseClassScales(s string) map[string]string {
	scales := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		class := CleanString(parts[0], true /* lower */)
		name := CleanString(parts[1])
		if class != "" && name != "" {
			scales[class] = name
		}
	}
	return scales
}
