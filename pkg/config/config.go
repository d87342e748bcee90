package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RegionCredentials holds the connection settings of one regional backend together with the
// names of the variables they were read from, so a missing value can be reported by name.
type RegionCredentials struct {
	URL        string
	ServiceKey string
	DSN        string

	URLVar string
	KeyVar string
}

type PopbillConfig struct {
	LinkID        string
	SecretKey     string
	TestMode      bool
	BaseURL       string
	CorpNum       string
	SenderNum     string
	BankCode      string
	AccountNumber string
}

type TossConfig struct {
	SecretKey string
	BaseURL   string
}

type SMSConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	BaseURL             string
	DefaultRegion       string
}

type SMTPConfig struct {
	Host string
	Port int
}

type AIConfig struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	TextModel        string
	ImageModel       string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
}

type StibeeConfig struct {
	APIKey  string
	BaseURL string
}

type GitHubConfig struct {
	Token   string
	Owner   string
	Repo    string
	BaseURL string
}

type AWSConfig struct {
	BankTransactionsTable string
	NotificationQueueURL  string
}

// BusinessConfig holds identifiers that appear on issued documents and notifications.
type BusinessConfig struct {
	CorpName       string
	CEOName        string
	Address        string
	Email          string
	TEL            string
	SupportPhone   string
	DepositAccount string
	AccountHolder  string

	KakaoChargeRequestTemplate  string
	KakaoChargeCompleteTemplate string
}

// Config is built once per process and passed to everything that needs settings.
type Config struct {
	Env           string
	HTTPPort      string
	StorageDriver string
	JWTSecret     string

	Regions map[string]RegionCredentials

	Popbill  PopbillConfig
	Toss     TossConfig
	SMS      SMSConfig
	SMTP     SMTPConfig
	AI       AIConfig
	Stibee   StibeeConfig
	GitHub   GitHubConfig
	AWS      AWSConfig
	Business BusinessConfig
}

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", "rest")

	v.SetDefault("POPBILL_BASE_URL", "https://popbill.linkhub.co.kr")
	v.SetDefault("POPBILL_TEST_BASE_URL", "https://popbill-test.linkhub.co.kr")
	v.SetDefault("BANK_CODE", "0003")
	v.SetDefault("TOSS_BASE_URL", "https://api.tosspayments.com")
	v.SetDefault("SMS_BASE_URL", "https://api.twilio.com")
	v.SetDefault("SMS_DEFAULT_REGION", "KR")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_TEXT_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	v.SetDefault("STIBEE_BASE_URL", "https://api.stibee.com/v1")
	v.SetDefault("GITHUB_BASE_URL", "https://api.github.com")
	v.SetDefault("GITHUB_OWNER", "mktbiz-byte")
	v.SetDefault("GITHUB_REPO", "cnecbiz")

	v.SetDefault("KAKAO_TEMPLATE_CHARGE_REQUEST", "025100000918")
	v.SetDefault("KAKAO_TEMPLATE_CHARGE_COMPLETE", "025100000943")
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	testMode := firstBool(v, "POPBILL_TEST_MODE", "VITE_POPBILL_IS_TEST")
	popbillBase := v.GetString("POPBILL_BASE_URL")
	if testMode {
		popbillBase = v.GetString("POPBILL_TEST_BASE_URL")
	}

	return &Config{
		Env:           v.GetString("APP_ENV"),
		HTTPPort:      v.GetString("HTTP_PORT"),
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		JWTSecret:     v.GetString("SUPABASE_JWT_SECRET"),
		Regions:       regionCredentials(v),
		Popbill: PopbillConfig{
			LinkID:        first(v, "POPBILL_LINK_ID", "VITE_POPBILL_LINK_ID"),
			SecretKey:     first(v, "POPBILL_SECRET_KEY", "VITE_POPBILL_SECRET_KEY"),
			TestMode:      testMode,
			BaseURL:       popbillBase,
			CorpNum:       first(v, "POPBILL_CORP_NUM", "VITE_POPBILL_CORP_NUM"),
			SenderNum:     first(v, "POPBILL_SENDER_NUM", "VITE_POPBILL_SENDER_NUM"),
			BankCode:      v.GetString("BANK_CODE"),
			AccountNumber: v.GetString("ACCOUNT_NUMBER"),
		},
		Toss: TossConfig{
			SecretKey: v.GetString("TOSS_SECRET_KEY"),
			BaseURL:   v.GetString("TOSS_BASE_URL"),
		},
		SMS: SMSConfig{
			AccountSID:          v.GetString("SMS_ACCOUNT_SID"),
			AuthToken:           v.GetString("SMS_AUTH_TOKEN"),
			MessagingServiceSID: v.GetString("SMS_MESSAGING_SERVICE_SID"),
			BaseURL:             v.GetString("SMS_BASE_URL"),
			DefaultRegion:       v.GetString("SMS_DEFAULT_REGION"),
		},
		SMTP: SMTPConfig{
			Host: v.GetString("SMTP_HOST"),
			Port: v.GetInt("SMTP_PORT"),
		},
		AI: AIConfig{
			GeminiAPIKey:     first(v, "GEMINI_API_KEY", "VITE_GEMINI_API_KEY"),
			GeminiBaseURL:    v.GetString("GEMINI_BASE_URL"),
			TextModel:        v.GetString("GEMINI_TEXT_MODEL"),
			ImageModel:       v.GetString("GEMINI_IMAGE_MODEL"),
			AnthropicAPIKey:  v.GetString("ANTHROPIC_API_KEY"),
			AnthropicBaseURL: v.GetString("ANTHROPIC_BASE_URL"),
			AnthropicModel:   v.GetString("ANTHROPIC_MODEL"),
		},
		Stibee: StibeeConfig{
			APIKey:  first(v, "STIBEE_API_KEY", "VITE_STIBEE_API_KEY"),
			BaseURL: v.GetString("STIBEE_BASE_URL"),
		},
		GitHub: GitHubConfig{
			Token:   v.GetString("GITHUB_TOKEN"),
			Owner:   v.GetString("GITHUB_OWNER"),
			Repo:    v.GetString("GITHUB_REPO"),
			BaseURL: v.GetString("GITHUB_BASE_URL"),
		},
		AWS: AWSConfig{
			BankTransactionsTable: v.GetString("DYNAMODB_BANK_TRANSACTIONS_TABLE_NAME"),
			NotificationQueueURL:  v.GetString("NOTIFICATION_QUEUE_URL"),
		},
		Business: BusinessConfig{
			CorpName:                    v.GetString("BUSINESS_CORP_NAME"),
			CEOName:                     v.GetString("BUSINESS_CEO_NAME"),
			Address:                     v.GetString("BUSINESS_ADDRESS"),
			Email:                       v.GetString("BUSINESS_EMAIL"),
			TEL:                         v.GetString("BUSINESS_TEL"),
			SupportPhone:                v.GetString("BUSINESS_SUPPORT_PHONE"),
			DepositAccount:              v.GetString("BUSINESS_DEPOSIT_ACCOUNT"),
			AccountHolder:               v.GetString("BUSINESS_ACCOUNT_HOLDER"),
			KakaoChargeRequestTemplate:  v.GetString("KAKAO_TEMPLATE_CHARGE_REQUEST"),
			KakaoChargeCompleteTemplate: v.GetString("KAKAO_TEMPLATE_CHARGE_COMPLETE"),
		},
	}
}

// regionVars lists, per canonical region, the variables its URL may come from (first set wins),
// its service key variable and its optional direct database DSN variable.
var regionVars = map[string]struct {
	urls []string
	key  string
	dsn  string
}{
	"korea":  {[]string{"VITE_SUPABASE_KOREA_URL", "SUPABASE_KOREA_URL"}, "SUPABASE_KOREA_SERVICE_ROLE_KEY", "SUPABASE_KOREA_DB_URL"},
	"japan":  {[]string{"VITE_SUPABASE_JAPAN_URL", "SUPABASE_JAPAN_URL"}, "SUPABASE_JAPAN_SERVICE_ROLE_KEY", "SUPABASE_JAPAN_DB_URL"},
	"us":     {[]string{"VITE_SUPABASE_US_URL", "SUPABASE_US_URL"}, "SUPABASE_US_SERVICE_ROLE_KEY", "SUPABASE_US_DB_URL"},
	"taiwan": {[]string{"VITE_SUPABASE_TAIWAN_URL", "SUPABASE_TAIWAN_URL"}, "SUPABASE_TAIWAN_SERVICE_ROLE_KEY", "SUPABASE_TAIWAN_DB_URL"},
	"biz":    {[]string{"VITE_SUPABASE_BIZ_URL", "SUPABASE_URL"}, "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_BIZ_DB_URL"},
}

func regionCredentials(v *viper.Viper) map[string]RegionCredentials {
	out := make(map[string]RegionCredentials, len(regionVars))
	for name, vars := range regionVars {
		out[name] = RegionCredentials{
			URL:        strings.TrimRight(first(v, vars.urls...), "/"),
			ServiceKey: v.GetString(vars.key),
			DSN:        v.GetString(vars.dsn),
			URLVar:     vars.urls[0],
			KeyVar:     vars.key,
		}
	}
	return out
}

func first(v *viper.Viper, keys ...string) string {
	for _, k := range keys {
		if s := v.GetString(k); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(v *viper.Viper, keys ...string) bool {
	return strings.EqualFold(first(v, keys...), "true")
}
