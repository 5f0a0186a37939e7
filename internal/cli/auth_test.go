package cli

import (
	"strings"
	"testing"
)

func TestLoginStoresSessionAcrossCommands(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Ada Lovelace", "ada@example.com", "Secret1!", "")

	out := dataMap(t, e.mustRun("login", "--email", "ada@example.com", "--password", "Secret1!"))
	if out["route"] != "/home" || out["message"] != "Login successful" {
		t.Fatalf("unexpected login output: %v", out)
	}

	who := dataMap(t, e.mustRun("whoami"))
	if who["authenticated"] != true || who["username"] != "Ada Lovelace" || who["role"] != "user" {
		t.Fatalf("unexpected whoami: %v", who)
	}
	if who["subject"] == "" || who["expiresAt"] == nil {
		t.Fatalf("expected token claims in whoami: %v", who)
	}

	dataMap(t, e.mustRun("logout"))
	who = dataMap(t, e.mustRun("whoami"))
	if who["authenticated"] != false {
		t.Fatalf("expected signed out, got %v", who)
	}
}

func TestLoginAdminLandsOnAdmin(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Root User", "root@example.com", "Secret1!", "admin")
	out := dataMap(t, e.mustRun("login", "--email", "root@example.com", "--password", "Secret1!"))
	if out["route"] != "/admin" {
		t.Fatalf("expected /admin, got %v", out["route"])
	}
}

func TestLoginReadsMissingFieldsFromStdin(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Ada Lovelace", "ada@example.com", "Secret1!", "")

	out, errOut, err := runCLIInput(t, "ada@example.com\nSecret1!\n", e.args("login"))
	if err != nil {
		t.Fatalf("login: %v\n%s", err, string(errOut))
	}
	if !strings.Contains(string(errOut), "Email: ") || !strings.Contains(string(errOut), "Password: ") {
		t.Fatalf("expected prompts on stderr, got %q", string(errOut))
	}
	if dataMap(t, decodeEnvelope(t, out))["message"] != "Login successful" {
		t.Fatalf("unexpected output %s", string(out))
	}
}

func TestLoginInvalidFormSendsNothing(t *testing.T) {
	e := newEnv(t)
	_, errOut, err := e.run("login", "--email", "not-an-email", "--password", "weak")
	if err == nil {
		t.Fatalf("expected error")
	}
	s := string(errOut)
	if !strings.Contains(s, "Please fix the errors above.") || !strings.Contains(s, "email: Invalid email") ||
		!strings.Contains(s, "password: Password must be at least 6 characters") {
		t.Fatalf("unexpected stderr %q", s)
	}
	if n := e.srv.Count("POST", "/auth/login"); n != 0 {
		t.Fatalf("expected no login request, got %d", n)
	}

	_, errOut, err = e.run("login", "--email", "ada@example.com", "--password", "longenough")
	if err == nil || !strings.Contains(string(errOut), "password: Password must be strong") {
		t.Fatalf("expected strength error, got err=%v stderr=%q", err, string(errOut))
	}
	if n := e.srv.Count("POST", "/auth/login"); n != 0 {
		t.Fatalf("expected no login request, got %d", n)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Ada Lovelace", "ada@example.com", "Secret1!", "")
	_, errOut, err := e.run("login", "--email", "ada@example.com", "--password", "Wrong1!x")
	if err == nil || !strings.Contains(string(errOut), "Invalid email or password") {
		t.Fatalf("expected server message, got err=%v stderr=%q", err, string(errOut))
	}
}

func TestRegisterSignsIn(t *testing.T) {
	e := newEnv(t)
	out := dataMap(t, e.mustRun("register", "--name", "Grace Hopper", "--email", "grace@example.com", "--password", "Secret1!"))
	if out["route"] != "/home" || out["message"] != "User registered successfully!" {
		t.Fatalf("unexpected register output: %v", out)
	}
	who := dataMap(t, e.mustRun("whoami"))
	if who["username"] != "Grace Hopper" {
		t.Fatalf("unexpected whoami %v", who)
	}
}

func TestGoogleLogin(t *testing.T) {
	e := newEnv(t)
	e.srv.RegisterGoogleToken("google-tok", "g@example.com")
	out := dataMap(t, e.mustRun("login", "--google-id-token", "google-tok"))
	if out["message"] != "Logged in with Google" {
		t.Fatalf("unexpected output %v", out)
	}
	if _, _, err := e.run("login", "--google-id-token", "bogus"); err == nil {
		t.Fatalf("expected error for unknown google token")
	}
}

func TestResetPasswordMismatch(t *testing.T) {
	e := newEnv(t)
	_, errOut, err := e.run("reset", "--new-password", "Secret1!", "--confirm-password", "Secret2!")
	if err == nil || !strings.Contains(string(errOut), "confirmPassword: Passwords do not match") {
		t.Fatalf("expected mismatch, got err=%v stderr=%q", err, string(errOut))
	}
	out := dataMap(t, e.mustRun("reset", "--new-password", "Secret1!", "--confirm-password", "Secret1!"))
	if out["route"] != "/login" {
		t.Fatalf("unexpected reset output %v", out)
	}
}

func TestForgotReturnsToLogin(t *testing.T) {
	e := newEnv(t)
	out := dataMap(t, e.mustRun("forgot", "--email", "ada@example.com"))
	if out["route"] != "/login" || out["message"] != "Reset link requested" {
		t.Fatalf("unexpected forgot output %v", out)
	}
}
