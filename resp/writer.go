package resp

import "strconv"

// EncodeCommand serializes a command verb and its argument byte runs as the
// canonical RESP2-style Array-of-BulkStrings request frame accepted by
// every server version, appending to and returning dst. No intermediate
// allocation beyond the length-formatting scratch is performed.
func EncodeCommand(dst []byte, verb string, args ...[]byte) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)+1), 10)
	dst = append(dst, '\r', '\n')
	dst = appendBulk(dst, []byte(verb))
	for _, a := range args {
		dst = appendBulk(dst, a)
	}
	return dst
}

// EncodeCommandStrings is a convenience wrapper over EncodeCommand for
// string arguments, the common case for hand-written verb helpers in api.
func EncodeCommandStrings(dst []byte, verb string, args ...string) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)+1), 10)
	dst = append(dst, '\r', '\n')
	dst = appendBulkString(dst, verb)
	for _, a := range args {
		dst = appendBulkString(dst, a)
	}
	return dst
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, b...)
	dst = append(dst, '\r', '\n')
	return dst
}

func appendBulkString(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	dst = append(dst, '\r', '\n')
	return dst
}
