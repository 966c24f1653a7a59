package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	APIPort  int
	Debug    bool
	LogLevel string
	LogFile  LogFileConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Email    EmailConfig
	Checkout CheckoutConfig
	Gateways GatewaysConfig
}

// DatabaseConfig MySQL数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int  // 单个文件最大大小，单位MB
	MaxBackups int  // 最大保留旧文件数量
	MaxAge     int  // 最大保留天数
	Compress   bool // 是否压缩
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Host     string // SMTP服务器地址
	Port     int    // SMTP服务器端口
	Username string // 邮箱账号
	Password string // 邮箱密码
	From     string // 发件人
	FromName string // 发件人名称
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	Currency        string  // 结算币种
	TaxRate         float64 // 税率
	ShippingFlat    float64 // 基础运费
	ShippingPerKg   float64 // 每公斤附加运费
	GuestCartTTLHrs int     // 游客购物车保留时长（小时）
}

// GatewayCredentials 支付网关凭证
type GatewayCredentials struct {
	APIKey  string // API密钥
	Secret  string // 签名/Webhook密钥
	BaseURL string // 网关API地址
	Sandbox bool   // 是否沙箱环境
}

// GatewaysConfig 各支付网关配置
type GatewaysConfig struct {
	Stripe      GatewayCredentials
	PayPal      GatewayCredentials
	PayU        GatewayCredentials
	Wompi       GatewayCredentials
	MercadoPago GatewayCredentials
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 加载.env文件
	err := godotenv.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &Config{
		APIPort:  envInt("API_PORT", 8080),
		Debug:    envBool("APP_DEBUG", false),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile: LogFileConfig{
			Enabled:    envBool("LOG_FILE_ENABLED", false),
			Path:       os.Getenv("LOG_FILE_PATH"),
			MaxSize:    envInt("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: envInt("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     envInt("LOG_FILE_MAX_AGE", 30),
			Compress:   envBool("LOG_FILE_COMPRESS", true),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     envInt("DB_PORT", 3306),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Email: EmailConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     envInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USERNAME"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
			FromName: os.Getenv("EMAIL_FROM_NAME"),
		},
		Checkout: CheckoutConfig{
			Currency:        envString("CHECKOUT_CURRENCY", "USD"),
			TaxRate:         envFloat("CHECKOUT_TAX_RATE", 0.10),
			ShippingFlat:    envFloat("CHECKOUT_SHIPPING_FLAT", 5.99),
			ShippingPerKg:   envFloat("CHECKOUT_SHIPPING_PER_KG", 0.50),
			GuestCartTTLHrs: envInt("CHECKOUT_GUEST_CART_TTL_HOURS", 72),
		},
		Gateways: GatewaysConfig{
			Stripe:      loadGateway("STRIPE", "https://api.stripe.com"),
			PayPal:      loadGateway("PAYPAL", "https://api-m.paypal.com"),
			PayU:        loadGateway("PAYU", "https://api.payulatam.com"),
			Wompi:       loadGateway("WOMPI", "https://production.wompi.co"),
			MercadoPago: loadGateway("MERCADOPAGO", "https://api.mercadopago.com"),
		},
	}, nil
}

// loadGateway 加载单个支付网关凭证
func loadGateway(prefix, defaultBaseURL string) GatewayCredentials {
	return GatewayCredentials{
		APIKey:  os.Getenv(prefix + "_API_KEY"),
		Secret:  os.Getenv(prefix + "_SECRET"),
		BaseURL: envString(prefix+"_BASE_URL", defaultBaseURL),
		Sandbox: envBool(prefix+"_SANDBOX", false),
	}
}

// envString 读取字符串环境变量，为空时返回默认值
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt 读取整数环境变量，解析失败时返回默认值
func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// envFloat 读取浮点数环境变量，解析失败时返回默认值
func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// envBool 读取布尔环境变量，解析失败时返回默认值
func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
