package hostfs

// Well-known account database locations (absolute host paths, resolved
// through Abs before use).
const (
	EtcPasswd = "/etc/passwd"
	EtcShadow = "/etc/shadow"
	EtcGroup  = "/etc/group"
)
