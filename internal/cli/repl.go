package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spiralapp/journal/internal/common"
	"github.com/spiralapp/journal/internal/signup"
	"github.com/spiralapp/journal/internal/tasks"
)

const helpText = `commands:
  signup                 create an account
  login                  sign in with email or username
  logout                 sign out
  whoami                 show the current profile
  forgot <username>      look up the email for a username
  add [date] <text>      add a task (date defaults to today)
  list [date]            list tasks for a day
  watch [date]           follow live updates for a day (Enter to stop)
  del <date> <id>        delete one task by id
  delmatch <date> <text> delete every task with this exact text
  dates                  list days that have entries
  clear                  delete all tasks for the account
  passwd                 change password
  delete-account         delete profile and credential
  quit                   exit`

func (a *App) repl(ctx context.Context) {
	a.printf("journal client, 'help' for commands")

	for {
		line, err := GetSimpleText(a.reader, "", a.out)
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			a.printf("%s", helpText)
		case "signup":
			a.cmdSignUp(ctx)
		case "login":
			a.cmdLogin(ctx)
		case "logout":
			a.store.SignOut(ctx)
			a.printf("signed out")
		case "whoami":
			a.cmdWhoAmI()
		case "forgot":
			a.cmdForgot(ctx, args)
		case "add":
			a.cmdAdd(ctx, args)
		case "list":
			a.cmdList(ctx, args)
		case "watch":
			a.cmdWatch(ctx, args)
		case "del":
			a.cmdDelete(ctx, args)
		case "delmatch":
			a.cmdDeleteMatching(ctx, args)
		case "dates":
			a.cmdDates(ctx)
		case "clear":
			a.cmdClear(ctx)
		case "passwd":
			a.cmdPasswd(ctx)
		case "delete-account":
			a.cmdDeleteAccount(ctx)
		case "quit", "exit":
			return
		default:
			a.printf("unknown command %q, try 'help'", cmd)
		}
	}
}

func (a *App) cmdSignUp(ctx context.Context) {
	fullName, _ := GetSimpleText(a.reader, "Full name", a.out)
	userName, _ := GetSimpleText(a.reader, "Username", a.out)
	email, _ := GetSimpleText(a.reader, "Email", a.out)
	emailTwo, _ := GetSimpleText(a.reader, "Confirm email", a.out)
	password, err := GetPassword("Password", a.out)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	passwordTwo, err := GetPassword("Confirm password", a.out)
	if err != nil {
		a.printf("error: %v", err)
		return
	}

	result := a.validator.ValidateSignUp(ctx, signup.Input{
		FullName:    fullName,
		UserName:    userName,
		EmailOne:    email,
		EmailTwo:    emailTwo,
		PasswordOne: password,
		PasswordTwo: passwordTwo,
	})
	if !result.OK {
		a.printf("%s", result.Message)
		return
	}

	profile, err := a.store.CreateAccount(ctx, email, password, fullName, userName)
	if err != nil {
		a.printf("%s", common.UserMessage(err))
		return
	}
	a.printf("welcome, %s (%s)", profile.FullName, profile.Initials())
}

func (a *App) cmdLogin(ctx context.Context) {
	identifier, _ := GetSimpleText(a.reader, "Email or username", a.out)
	password, err := GetPassword("Password", a.out)
	if err != nil {
		a.printf("error: %v", err)
		return
	}

	sess, err := a.store.SignIn(ctx, identifier, password)
	if err != nil {
		a.printf("%s", common.UserMessage(err))
		return
	}
	a.printf("signed in as %s", sess.Profile.UserName)
}

func (a *App) cmdWhoAmI() {
	sess, ok := a.store.Current()
	if !ok {
		a.printf("not signed in")
		return
	}
	p := sess.Profile
	a.printf("%s <%s> @%s", p.FullName, p.Email, p.UserName)
}

func (a *App) cmdForgot(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.printf("usage: forgot <username>")
		return
	}
	email, err := a.store.ResolveEmail(ctx, args[0])
	if err != nil {
		a.printf("%s", common.UserMessage(err))
		return
	}
	a.printf("email on file: %s", email)
}

// dateAndRest splits an optional leading YYYY-MM-DD argument from the
// remaining words, defaulting to today.
func dateAndRest(args []string) (string, []string) {
	if len(args) > 0 {
		if _, err := time.Parse(tasks.DateLayout, args[0]); err == nil {
			return args[0], args[1:]
		}
	}
	return time.Now().Format(tasks.DateLayout), args
}

func (a *App) requireLogin() (string, bool) {
	sess, ok := a.store.Current()
	if !ok {
		a.printf("please sign in first")
		return "", false
	}
	return sess.Profile.ID, true
}

func (a *App) cmdAdd(ctx context.Context, args []string) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}

	date, rest := dateAndRest(args)
	text := strings.Join(rest, " ")
	entry, err := a.tasks.AddTask(ctx, id, date, text)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	a.printf("added %s on %s", entry.ID, date)
}

func (a *App) cmdList(ctx context.Context, args []string) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}

	date, _ := dateAndRest(args)
	entries, err := a.tasks.List(ctx, id, date)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	a.printEntries(date, entries)
}

func (a *App) printEntries(date string, entries []tasks.Entry) {
	if len(entries) == 0 {
		a.printf("%s: no tasks", date)
		return
	}
	a.printf("%s:", date)
	for _, e := range entries {
		a.printf("  %s  %s", e.ID, e.Task)
	}
}

// cmdWatch follows the live subscription until the user presses Enter.
func (a *App) cmdWatch(ctx context.Context, args []string) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}

	date, _ := dateAndRest(args)
	sub, err := a.tasks.Subscribe(ctx, id, date)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	defer sub.Close()

	a.printf("watching %s, press Enter to stop", date)

	go func() {
		for snap := range sub.Updates() {
			if snap.Err != nil {
				a.printf("subscription error: %v", snap.Err)
				continue
			}
			a.printEntries(date, snap.Entries)
		}
	}()

	_, _ = a.reader.ReadString('\n')
}

func (a *App) cmdDelete(ctx context.Context, args []string) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}
	if len(args) != 2 {
		a.printf("usage: del <date> <id>")
		return
	}

	if err := a.tasks.DeleteTask(ctx, id, args[0], args[1]); err != nil {
		a.printf("error: %v", err)
		return
	}
	a.printf("deleted")
}

func (a *App) cmdDeleteMatching(ctx context.Context, args []string) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}
	if len(args) < 2 {
		a.printf("usage: delmatch <date> <text>")
		return
	}

	n, err := a.tasks.DeleteMatching(ctx, id, args[0], strings.Join(args[1:], " "))
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	a.printf("deleted %d task(s)", n)
}

func (a *App) cmdDates(ctx context.Context) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}

	dates, err := a.tasks.ListDates(ctx, id)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	for _, d := range dates {
		a.printf("%s", d)
	}
}

func (a *App) cmdClear(ctx context.Context) {
	id, ok := a.requireLogin()
	if !ok {
		return
	}

	confirm, _ := GetSimpleText(a.reader, "Delete ALL tasks? type 'yes' to confirm", a.out)
	if confirm != "yes" {
		a.printf("cancelled")
		return
	}

	if err := a.tasks.ClearAll(ctx, id); err != nil {
		a.printf("error: %v", err)
		return
	}
	a.printf("all tasks cleared")
}

func (a *App) cmdPasswd(ctx context.Context) {
	if !a.isLoggedIn() {
		a.printf("please sign in first")
		return
	}

	current, err := GetPassword("Current password", a.out)
	if err != nil {
		a.printf("error: %v", err)
		return
	}
	next, err := GetPassword("New password", a.out)
	if err != nil {
		a.printf("error: %v", err)
		return
	}

	if msg := signup.ValidPassword(next); msg != "" {
		a.printf("%s", msg)
		return
	}
	if err := a.store.UpdatePassword(ctx, current, next); err != nil {
		a.printf("%s", common.UserMessage(err))
		return
	}
	a.printf("password updated")
}

func (a *App) cmdDeleteAccount(ctx context.Context) {
	if !a.isLoggedIn() {
		a.printf("please sign in first")
		return
	}

	confirm, _ := GetSimpleText(a.reader, "This permanently deletes your account. Type 'yes' to confirm", a.out)
	if confirm != "yes" {
		a.printf("cancelled")
		return
	}

	if err := a.store.DeleteAccount(ctx); err != nil {
		a.printf("account deletion incomplete: %v", err)
		return
	}
	a.printf("account deleted")
}
