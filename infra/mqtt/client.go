// Package mqtt publishes accepted trajectories to workers over MQTT.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	corelogger "github.com/kilianp07/trajplan/core/logger"
	"github.com/kilianp07/trajplan/infra/logger"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "workers"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker" yaml:"broker"`
	ClientID    string      `json:"client_id" yaml:"client_id"`
	Username    string      `json:"username" yaml:"username"`
	Password    string      `json:"password" yaml:"password"`
	UseTLS      bool        `json:"use_tls" yaml:"use_tls"`
	ClientCert  string      `json:"client_cert" yaml:"client_cert"`
	ClientKey   string      `json:"client_key" yaml:"client_key"`
	CABundle    string      `json:"ca_bundle" yaml:"ca_bundle"`
	AuthMethod  string      `json:"auth_method" yaml:"auth_method"`
	TopicPrefix string      `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte        `json:"qos" yaml:"qos"`
	Retain      bool        `json:"retain" yaml:"retain"`
	LWTTopic    string      `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS      byte        `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain   bool        `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries  int         `json:"max_retries" yaml:"max_retries"`
	BackoffMS   int         `json:"backoff_ms" yaml:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-" yaml:"-"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "trajplan"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the configuration. An empty broker disables publishing
// and is valid.
func (c Config) Validate() error {
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if c.MaxRetries < 0 || c.BackoffMS < 0 {
		return fmt.Errorf("mqtt retries and backoff must not be negative")
	}
	switch c.AuthMethod {
	case "", "username_password", "tls", "both":
	default:
		return fmt.Errorf("unknown mqtt auth_method %q", c.AuthMethod)
	}
	return nil
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// connect builds the options and connects a client.
func connect(cfg Config, log corelogger.Logger) (pahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return c, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.ConnectTimeout = 10 * time.Second
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS || cfg.AuthMethod == "tls" {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func componentLogger(log corelogger.Logger) corelogger.Logger {
	if log == nil {
		return logger.New("mqtt_publisher")
	}
	return log
}
