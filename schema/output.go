package schema

// EchoPrefix precedes an echoed console command in the visible log.
const EchoPrefix = "> "

// NoticePrefix precedes host notices that are not part of a script.
const NoticePrefix = "!! "
