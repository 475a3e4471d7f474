package config

const (
	defaultDataDir         = "~/.local/share/songbook"
	defaultCacheDir        = "~/.cache/songbook"
	defaultLogDir          = "~/.local/share/songbook/logs"
	defaultLibraryFileName = "library.json"
	defaultBackupCount     = 5
	defaultMinTokenLength  = 1
	defaultThumbMaxMiB     = 200
	defaultThumbMaxEntries = 2000
	defaultThumbSize       = 320
	defaultThumbMinFreeMiB = 512
	defaultPageBatchSize   = 5
	defaultLoaderWorkers   = 2
	defaultTextPageLines   = 60
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

func defaultDocumentExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".gif", ".txt", ".md", ".docx"}
}

func defaultAudioExtensions() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac"}
}

func defaultVideoExtensions() []string {
	return []string{".mp4", ".avi", ".mkv", ".mov", ".wmv"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Library: Library{
			FileName:    defaultLibraryFileName,
			AutoBackup:  true,
			BackupCount: defaultBackupCount,
		},
		Search: Search{
			MinTokenLength: defaultMinTokenLength,
		},
		Thumbnails: Thumbnails{
			Enabled:     true,
			MaxMiB:      defaultThumbMaxMiB,
			MaxEntries:  defaultThumbMaxEntries,
			DefaultSize: defaultThumbSize,
			MinFreeMiB:  defaultThumbMinFreeMiB,
		},
		Loader: Loader{
			PageBatchSize: defaultPageBatchSize,
			Workers:       defaultLoaderWorkers,
			TextPageLines: defaultTextPageLines,
		},
		Import: Import{
			DocumentExtensions: defaultDocumentExtensions(),
			AudioExtensions:    defaultAudioExtensions(),
			VideoExtensions:    defaultVideoExtensions(),
			CopyFiles:          false,
			ProbeTags:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
