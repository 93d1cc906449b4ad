package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide explains how to copy the Weibo cookie out of a
// logged-in browser
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"WEIBO COOKIE GUIDE",
		rule,
		"",
		"wbvideo reads the video feed the same way the website does, so it needs",
		"the session cookie of a logged-in browser.",
		"",
		"1. Open https://weibo.com in your browser and log in.",
		"2. Open Developer Tools (F12, or Cmd+Option+I on macOS).",
		"3. Go to the Network tab and reload the page.",
		"4. Click any request to weibo.com, e.g. one under /ajax/.",
		"5. Under Request Headers, copy the whole value of the Cookie header.",
		"",
		"The value must contain SUB=...; SUBP, XSRF-TOKEN and WBPSESS are",
		"usually present as well. Paste the whole line, not single values.",
		"",
		"The cookie expires. When the feed starts answering with a login page",
		"or status 400, log in again and run `wbvideo auth login` to replace it.",
		"",
		"The cookie grants full access to the account. Do not share it.",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// ShowQuickExtractGuide prints the one-line version of the guide
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "F12 → Network → reload → any weibo.com/ajax request → Request Headers → copy Cookie")
	fmt.Fprintln(w, "Type 'help' for detailed instructions")
}
