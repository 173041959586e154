package config

type Upload struct {
	Dir        string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicPath string `env:"UPLOAD_PUBLIC_PATH" envDefault:"/uploads"`
	// MaxSize is the largest accepted image in bytes.
	MaxSize int64 `env:"UPLOAD_MAX_SIZE" envDefault:"5242880"`
}
