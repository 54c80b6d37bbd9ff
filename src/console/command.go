package console

// Command is a menu entry number.
type Command int

const (
	CmdEnd Command = iota
	CmdStats
	CmdUsers
	CmdAssets
	CmdDownload
	CmdDownloadDisplay
	CmdUpload
	CmdAddUser
)

var commandLabels = map[Command]string{
	CmdEnd:             "end",
	CmdStats:           "stats",
	CmdUsers:           "users",
	CmdAssets:          "assets",
	CmdDownload:        "download",
	CmdDownloadDisplay: "download and display",
	CmdUpload:          "upload",
	CmdAddUser:         "add user",
}

var commandNames = map[Command]string{
	CmdEnd:             "end",
	CmdStats:           "stats",
	CmdUsers:           "users",
	CmdAssets:          "assets",
	CmdDownload:        "download",
	CmdDownloadDisplay: "download_display",
	CmdUpload:          "upload",
	CmdAddUser:         "add_user",
}

// Label is the menu text.
func (c Command) Label() string {
	return commandLabels[c]
}

// String is the metrics label.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}
