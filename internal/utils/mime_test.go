package utils

import (
	"strings"
	"testing"
)

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func TestParseMailNestedMultipart(t *testing.T) {
	raw := crlf(`From: "Billing Team" <billing@pay-secure.example>
Subject: Action required
Date: Mon, 03 Jun 2024 10:15:00 +0000
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/html; charset=utf-8

<p>Hello <a href="https://pay-secure.example/verify">verify</a></p>
--inner
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

Please verify your account at https://pay-secure.example/verify =
today.
--inner--
--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="invoice.pdf"

JVBERi0=
--outer--
`)

	msg, err := ParseMail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseMail: %v", err)
	}
	if msg.Subject != "Action required" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.From, "billing@pay-secure.example") {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Date != "Mon, 03 Jun 2024 10:15:00 +0000" {
		t.Errorf("Date = %q", msg.Date)
	}
	if msg.HTML {
		t.Error("plain part should win over html")
	}
	if !strings.HasPrefix(msg.Body, "Please verify your account at https://pay-secure.example/verify today.") {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestParseMailHTMLOnly(t *testing.T) {
	raw := crlf(`Subject: Offer
Content-Type: text/html; charset=utf-8

<html><body><a href="https://deal.example.top/claim">Claim</a></body></html>
`)

	msg, err := ParseMail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseMail: %v", err)
	}
	if !msg.HTML || !strings.Contains(msg.Body, "deal.example.top") {
		t.Errorf("msg = %+v", msg)
	}
	if msg.From != DefaultSender {
		t.Errorf("From = %q, want %q", msg.From, DefaultSender)
	}
}

func TestParseMailMissingHeaders(t *testing.T) {
	msg, err := ParseMail(strings.NewReader(crlf("\nJust a body line.\n")))
	if err != nil {
		t.Fatalf("ParseMail: %v", err)
	}
	if msg.Subject != DefaultSubject || msg.From != DefaultSender {
		t.Errorf("headers = %q / %q", msg.Subject, msg.From)
	}
	if msg.Date != DefaultDate {
		t.Errorf("Date = %q, want %q", msg.Date, DefaultDate)
	}
	if !strings.Contains(msg.Body, "Just a body line.") {
		t.Errorf("Body = %q", msg.Body)
	}
}
