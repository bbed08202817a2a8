package rfced

// Config holds configuration for the RFC Editor sync.
type Config struct {
	// NotifyURL is where approved-draft notifications are posted.
	NotifyURL string `mapstructure:"notify_url" default:"https://www.rfc-editor.org/sdev/jsonexp/jsonparser.php"`
	// SyncPassword is the HTTP Basic auth secret for the notify endpoint.
	SyncPassword string `mapstructure:"sync_password" default:""`
	// TimeoutSeconds bounds the outbound notification request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"20"`
	// MailTo receives the "received by RFC Editor" notification mails.
	MailTo string `mapstructure:"mail_to" default:"iesg-secretary@ietf.org"`
	// DraftPrefix is the object-storage prefix for active draft files.
	DraftPrefix string `mapstructure:"draft_prefix" default:"drafts/active"`
	// ArchivePrefix is the object-storage prefix drafts move to on publication.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"drafts/archive"`
}
