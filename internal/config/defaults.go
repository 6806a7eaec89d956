package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	asrCommand := "python whisper_asr.py"

	return Config{
		Polish: PolishConfig{
			DefaultLanguage:             "",
			HintPolicy:                  "detect",
			SmartPunctuation:            true,
			PreserveInsertedPunctuation: true,
			UnicodeForm:                 "none",
		},
		ASR: ASRConfig{
			Command:   CommandConfig{Raw: asrCommand, Argv: mustParseArgv(asrCommand)},
			TimeoutMS: 120000,
		},
		Audio: AudioConfig{
			Input:         "default",
			Fallback:      "default",
			MaxDurationMS: 60000,
		},
		Server: ServerConfig{Address: "127.0.0.1:50061"},
		Batch:  BatchConfig{Jobs: 0},
		Log:    LogConfig{Level: "info"},
		Debug:  DebugConfig{},
	}
}
