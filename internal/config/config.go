package config

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	Postgres    `yaml:"postgres"`
	Redis       `yaml:"redis"`
	RabbitMQ    `yaml:"rabbitmq"`
	Tokens      `yaml:"tokens"`
	SignedLinks `yaml:"signed_links"`
	Cookies     `yaml:"cookies"`
	Resumes     `yaml:"resumes"`
	Mail        `yaml:"mail"`
}

// MailSender is the subset read by the mail consumer. It accepts the same
// file as Config and ignores the sections it does not use.
type MailSender struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	Mail     `yaml:"mail"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout        time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	PublicURL      string        `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"mail"`
}

type Tokens struct {
	AccessTokenSecret string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl" env-default:"1h"`
	RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl" env-default:"336h"`
	Issuer            string        `yaml:"issuer" env-default:"jobboard"`
}

type SignedLinks struct {
	Secret    string        `yaml:"secret" env:"SIGNED_LINK_SECRET" env-required:"true"`
	ResumeTTL time.Duration `yaml:"resume_ttl" env-default:"168h"`
}

type Cookies struct {
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE" env-default:"false"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:"lax"`
}

type Resumes struct {
	Driver      string `yaml:"driver" env:"RESUME_DRIVER" env-default:"local"`
	Dir         string `yaml:"dir" env:"RESUME_DIR" env-default:"./storage"`
	MaxSize     int64  `yaml:"max_size" env-default:"5242880"`
	S3Bucket    string `yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Region    string `yaml:"s3_region" env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint  string `yaml:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
}

type Mail struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"1025"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"MAIL_FROM" env-default:"no-reply@jobboard.local"`
}

// MustLoad reads the config file named by the -config flag or CONFIG_PATH.
func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := read(configPath, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoadMailSender is MustLoad for the mail consumer.
func MustLoadMailSender() *MailSender {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	cfg, err := LoadMailSender(path)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadMailSender(configPath string) (*MailSender, error) {
	var cfg MailSender

	if err := read(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func read(configPath string, cfg any) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Resumes.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("config: unknown resumes.driver %q", c.Resumes.Driver)
	}

	if c.Resumes.Driver == "s3" && c.Resumes.S3Bucket == "" {
		return fmt.Errorf("config: resumes.s3_bucket is required for the s3 driver")
	}

	if _, ok := parseSameSite(c.Cookies.SameSite); !ok {
		return fmt.Errorf("config: unknown cookies.same_site %q", c.Cookies.SameSite)
	}

	return nil
}

// SameSiteMode maps the configured same_site value onto net/http.
func (c Cookies) SameSiteMode() http.SameSite {
	mode, _ := parseSameSite(c.SameSite)
	return mode
}

func parseSameSite(s string) (http.SameSite, bool) {
	switch strings.ToLower(s) {
	case "", "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	}

	return http.SameSiteDefaultMode, false
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}

// DSN formats the libpq connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
	)
}
