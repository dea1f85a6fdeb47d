package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/conversa-chat/conversa/pkg/model"
	"github.com/conversa-chat/conversa/pkg/protocol"
)

// HandleConn runs the lifecycle of one client connection: read a line,
// decode the verb, dispatch. It blocks until the peer disconnects, the
// transport fails or the server shuts down, then unwinds the session.
// Both the TCP accept loop and the WebSocket gateway enter here.
func (s *Server) HandleConn(conn LineConn) {
	sess := newSession(s.nextSessionID.Add(1), conn)
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	slog.Debug("new connection", "remote", conn.RemoteAddr(), "session", sess.ID())

	defer s.teardown(sess)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if err != io.EOF && !isClosedErr(err) {
				slog.Debug("read error", "session", sess.ID(), "err", err)
			}
			return
		}
		if line == "" {
			continue
		}
		if quit := s.dispatch(sess, protocol.ParseVerb(line)); quit {
			return
		}
	}
}

// teardown unwinds a session exactly once, whether the client sent
// DESCONECTAR or the transport failed: stop outbound writes, leave the
// current room (announcing the departure), drop the registry entry, close
// the transport. Runs before the connection goroutine exits so no orphaned
// membership or registry rows survive it.
func (s *Server) teardown(sess *Session) {
	sess.markDisconnected()
	_ = sess.CloseConn()

	if left, emptied := s.rooms.Exit(sess); left != nil {
		slog.Debug("session left room on disconnect", "room", left.Name(), "emptied", emptied)
	}
	s.sessions.Unregister(sess)

	s.metrics.ActiveConnections.Add(-1)
	s.metrics.TotalDisconnects.Add(1)
	slog.Info("client disconnected", "user", sess.Username(), "session", sess.ID())
}

// dispatch maps one decoded verb onto registry/room operations. Returns true
// when the connection should terminate.
func (s *Server) dispatch(sess *Session, v protocol.Verb) bool {
	switch v.Kind {
	case protocol.VerbLogin:
		s.handleLogin(sess, v)
	case protocol.VerbListRooms:
		s.handleListRooms(sess)
	case protocol.VerbEnterRoom:
		s.handleEnterRoom(sess, v.Arg)
	case protocol.VerbExitRoom:
		s.handleExitRoom(sess)
	case protocol.VerbMessage:
		s.handleMessage(sess, v.Arg)
	case protocol.VerbCreateRoom:
		s.handleCreateRoom(sess, v.Arg)
	case protocol.VerbListUsers:
		s.handleListUsers(sess)
	case protocol.VerbKickUser:
		s.handleKickUser(sess, v.Arg)
	case protocol.VerbCloseRoom:
		s.handleCloseRoom(sess, v.Arg)
	case protocol.VerbBanUser:
		s.handleBanUser(sess, v.Arg)
	case protocol.VerbDisconnect:
		return true
	default:
		sess.Send(protocol.Erro("comando não reconhecido: " + v.Arg))
	}
	return false
}

func (s *Server) handleLogin(sess *Session, v protocol.Verb) {
	if sess.LoggedIn() {
		sess.Send(protocol.Erro("você já está autenticado"))
		return
	}
	if err := model.ValidateUsername(v.Name); err != nil {
		s.metrics.FailedLogins.Add(1)
		sess.Send(protocol.Erro("nome de usuário inválido"))
		return
	}

	banned, err := s.store.IsBanned(v.Name)
	if err != nil {
		slog.Error("ban lookup failed", "user", v.Name, "err", err)
		sess.Send(protocol.Erro("erro interno"))
		return
	}
	if banned {
		s.metrics.FailedLogins.Add(1)
		sess.Send(protocol.Erro("você está banido deste servidor"))
		return
	}

	admin := s.verifier.Verify(v.Secret)
	sess.bindLogin(v.Name, admin)
	if err := s.sessions.Register(sess); err != nil {
		sess.clearLogin()
		s.metrics.FailedLogins.Add(1)
		sess.Send(protocol.Erro("nome de usuário já está em uso"))
		return
	}

	s.metrics.SuccessfulLogins.Add(1)
	slog.Info("client authenticated", "user", v.Name, "admin", admin, "session", sess.ID())

	msg := fmt.Sprintf("login realizado como '%s'", v.Name)
	if admin {
		msg += " (administrador)"
	}
	sess.Send(protocol.Sucesso(msg))
}

func (s *Server) handleListRooms(sess *Session) {
	if !sess.LoggedIn() {
		return // silently ignored before login
	}
	sess.Send(protocol.Salas(s.rooms.List()))
}

func (s *Server) handleEnterRoom(sess *Session, name string) {
	if !sess.LoggedIn() {
		sess.Send(protocol.Erro("faça login primeiro"))
		return
	}
	if err := model.ValidateRoomName(name); err != nil {
		sess.Send(protocol.Erro("nome de sala inválido"))
		return
	}

	if _, err := s.rooms.Enter(sess, name); err != nil {
		sess.Send(protocol.Erro(errorMessage(err, name)))
		return
	}
	slog.Info("user entered room", "user", sess.Username(), "room", name)
	sess.Send(protocol.Sucesso(fmt.Sprintf("você entrou na sala '%s'", name)))
}

func (s *Server) handleExitRoom(sess *Session) {
	if !sess.LoggedIn() {
		sess.Send(protocol.Erro("faça login primeiro"))
		return
	}
	left, _ := s.rooms.Exit(sess)
	if left == nil {
		sess.Send(protocol.Erro("você não está em uma sala"))
		return
	}
	slog.Info("user left room", "user", sess.Username(), "room", left.Name())
	sess.Send(protocol.Sucesso(fmt.Sprintf("você saiu da sala '%s'", left.Name())))
}

func (s *Server) handleMessage(sess *Session, text string) {
	if !sess.LoggedIn() {
		sess.Send(protocol.Erro("faça login primeiro"))
		return
	}
	room := sess.Room()
	if room == nil {
		sess.Send(protocol.Erro("você não está em uma sala"))
		return
	}

	text = sanitizeText(strings.TrimSpace(text))
	if text == "" || utf8.RuneCountInString(text) > model.MaxMessageLength {
		return // empty or oversized, silently drop
	}

	room.BroadcastChat(sess, text)
	sess.Send(protocol.Sucesso("mensagem enviada"))
	s.metrics.MessagesSent.Add(1)
}

func (s *Server) handleCreateRoom(sess *Session, name string) {
	if !s.requireAdmin(sess) {
		return
	}
	if err := model.ValidateRoomName(name); err != nil {
		sess.Send(protocol.Erro("nome de sala inválido"))
		return
	}

	if err := s.rooms.Create(name); err != nil {
		sess.Send(protocol.Erro(errorMessage(err, name)))
		return
	}
	slog.Info("room created by admin", "room", name, "by", sess.Username())
	sess.Send(protocol.Sucesso(fmt.Sprintf("sala '%s' criada", name)))
}

func (s *Server) handleListUsers(sess *Session) {
	if !sess.LoggedIn() {
		sess.Send(protocol.Erro("faça login primeiro"))
		return
	}
	room := sess.Room()
	if room == nil {
		sess.Send(protocol.Erro("você não está em uma sala"))
		return
	}
	sess.Send(protocol.Usuarios(room.Members()))
}

func (s *Server) handleKickUser(sess *Session, target string) {
	if !s.requireAdmin(sess) {
		return
	}
	room := sess.Room()
	if room == nil {
		sess.Send(protocol.Erro("você não está em uma sala"))
		return
	}

	kicked, err := s.rooms.Kick(room, target)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			sess.Send(protocol.Erro(errorMessage(err, room.Name())))
		} else {
			sess.Send(protocol.Erro(errorMessage(err, target)))
		}
		return
	}

	// The target already got their own notice from the registry; the rest of
	// the room learns who did the kicking.
	room.BroadcastSystem(fmt.Sprintf("%s foi expulso da sala por %s", kicked.Username(), sess.Username()), sess)
	sess.Send(protocol.Sucesso(fmt.Sprintf("usuário '%s' expulso da sala", target)))

	s.metrics.KickCount.Add(1)
	slog.Info("user kicked", "target", target, "room", room.Name(), "by", sess.Username())
}

func (s *Server) handleCloseRoom(sess *Session, name string) {
	if !s.requireAdmin(sess) {
		return
	}
	if err := s.rooms.Close(name); err != nil {
		sess.Send(protocol.Erro(errorMessage(err, name)))
		return
	}
	sess.Send(protocol.Sucesso(fmt.Sprintf("sala '%s' encerrada", name)))
}

func (s *Server) handleBanUser(sess *Session, target string) {
	if !s.requireAdmin(sess) {
		return
	}
	if err := model.ValidateUsername(target); err != nil {
		sess.Send(protocol.Erro("nome de usuário inválido"))
		return
	}
	if target == sess.Username() {
		sess.Send(protocol.Erro("você não pode banir a si mesmo"))
		return
	}

	if err := s.store.CreateBan(target, "", sess.Username(), time.Time{}); err != nil {
		slog.Error("ban create failed", "target", target, "err", err)
		sess.Send(protocol.Erro("erro interno"))
		return
	}

	// Drop the target if online; closing the transport makes their own
	// goroutine run the normal disconnect cleanup.
	if online := s.sessions.Get(target); online != nil {
		online.Send(protocol.Info("Você foi banido deste servidor"))
		_ = online.CloseConn()
	}

	s.metrics.BanCount.Add(1)
	slog.Info("user banned", "target", target, "by", sess.Username())
	sess.Send(protocol.Sucesso(fmt.Sprintf("usuário '%s' banido do servidor", target)))
}

// requireAdmin sends the appropriate error reply and returns false when the
// session may not run admin verbs.
func (s *Server) requireAdmin(sess *Session) bool {
	if !sess.LoggedIn() {
		sess.Send(protocol.Erro("faça login primeiro"))
		return false
	}
	if !sess.Admin() {
		sess.Send(protocol.Erro("apenas administradores podem executar este comando"))
		return false
	}
	return true
}

// errorMessage maps a domain error to the client-facing Portuguese text.
func errorMessage(err error, subject string) string {
	switch {
	case errors.Is(err, model.ErrRoomExists):
		return fmt.Sprintf("sala '%s' já existe", subject)
	case errors.Is(err, model.ErrRoomNotFound):
		return fmt.Sprintf("sala '%s' não encontrada", subject)
	case errors.Is(err, model.ErrAlreadyInRoom):
		return "você já está em uma sala"
	case errors.Is(err, model.ErrNotInRoom):
		return "você não está em uma sala"
	case errors.Is(err, model.ErrUserNotInRoom):
		return fmt.Sprintf("usuário '%s' não está na sala", subject)
	case errors.Is(err, model.ErrNameTaken):
		return "nome de usuário já está em uso"
	case errors.Is(err, model.ErrNotAdmin):
		return "apenas administradores podem executar este comando"
	default:
		return "erro interno"
	}
}

// sanitizeText strips control characters (except newline) from user-supplied
// text to prevent terminal escape injection and null-byte attacks.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' ' // collapse newlines to spaces
		}
		if unicode.IsControl(r) {
			return -1 // strip all other control chars (null, bell, ANSI escapes, etc.)
		}
		return r
	}, s)
}
