package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port               int    `yaml:"port"`
	Protocol           string `yaml:"protocol"` // http | https
	PublicURL          string `yaml:"publicURL,omitempty"` // base URL encoded into the upload QR code
	PickDir            string `yaml:"pickDir"`             // directory the click picker lists
	Accept             string `yaml:"accept"`
	Multiple           bool   `yaml:"multiple"`
	Description        string `yaml:"description"`
	Icon               string `yaml:"icon"`
	ButtonStyle        string `yaml:"buttonStyle"`
	Tooltip            string `yaml:"tooltip,omitempty"`
	MaxConcurrentReads int    `yaml:"maxConcurrentReads"` // 0 means one task per file
	MaxUploadBytes     int64  `yaml:"maxUploadBytes"`     // multipart request limit
	UploadRatePerSec   int    `yaml:"uploadRatePerSec"`   // per client IP, 0 disables limiting
	RemoteSyncURL      string `yaml:"remoteSyncURL,omitempty"`
	NotifySocket       string `yaml:"notifySocket,omitempty"`
	CertPEM            string `yaml:"certPEM,omitempty"` // generated on first https start
	KeyPEM             string `yaml:"keyPEM,omitempty"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log              string
	UseConfigPath    string
	UsePort          int
	UseHttps         bool
	UsePickDir       string
	UseRemoteSyncURL string
	UseMultiple      bool
	SkipNotify       bool
}
