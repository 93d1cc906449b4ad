package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=wbvideo", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender shows a toast through PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$tpl = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $tpl.GetElementsByTagName("text")
		$text.Item(0).AppendChild($tpl.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($tpl.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($tpl)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("wbvideo").Show($toast)
	`, psQuote(title), psQuote(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func psQuote(s string) string { return strings.ReplaceAll(s, "'", "''") }

// Notifier prints a notice and mirrors it to the desktop when enabled
type Notifier struct {
	sender  NotificationSender
	desktop bool
}

// NewNotifier picks a sender for the current platform. When desktop is
// false notices are only printed.
func NewNotifier(desktop bool) *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}
	return NewNotifierWithSender(sender, desktop)
}

// NewNotifierWithSender uses sender for desktop notices
func NewNotifierWithSender(sender NotificationSender, desktop bool) *Notifier {
	return &Notifier{sender: sender, desktop: desktop}
}

func (n *Notifier) send(title, message string) {
	if n.desktop && n.sender != nil {
		// delivery failures are not worth surfacing
		_ = n.sender.Send(title, message)
	}
}

// SendSuccess announces a finished run
func (n *Notifier) SendSuccess(title, message string) {
	if !IsQuietMode() {
		fmt.Fprintf(Out, "\n%s: %s\n", Green(title), Green(message))
	}
	n.send(title, message)
}

// SendError announces a failed run
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(Out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}
