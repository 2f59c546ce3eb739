// Package requestgen builds raw requests for tests and benchmarks.
package requestgen

import (
	"strconv"
	"strings"

	"github.com/indigo-web/twotter/kv"
)

// Headers returns n headers, the last of them being the session cookie.
func Headers(n int, token string) *kv.Storage {
	hdrs := kv.NewPrealloc(n)

	for i := 0; i < n-1; i++ {
		hdrs.Add("some-random-header-name-nobody-cares-about"+strconv.Itoa(i), strings.Repeat("b", 100))
	}

	return hdrs.Add("Cookie", "session="+token)
}

func HeadersBlock(hdrs *kv.Storage) (buff []byte) {
	for key, value := range hdrs.Pairs() {
		buff = append(buff, key+": "+value+"\r\n"...)
	}

	return buff
}

// Generate returns a complete GET request for the target.
func Generate(target string, hdrs *kv.Storage) (request []byte) {
	request = append(request, "GET "+target+" HTTP/1.1\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)

	return append(request, '\r', '\n')
}
