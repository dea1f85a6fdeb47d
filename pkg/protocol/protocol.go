// Package protocol defines the line-oriented wire protocol: one client verb
// or one server event per line.
//
// Client to server:
//
//	Login <name>:<secret-or-empty>
//	LISTAR_SALAS
//	ENTRAR_SALA:<room>
//	SAIR_SALA
//	MENSAGEM:<text>
//	CRIAR_SALA:<room>
//	LISTAR_USUARIOS
//	EXPULSAR:<name>
//	ENCERRAR_SALA:<room>
//	BANIR:<name>
//	DESCONECTAR
//
// Server to client:
//
//	ERRO:<message>
//	SUCESSO:<message>
//	INFO:<message>
//	SALAS:<name>|<count>,<name>|<count>,...
//	USUARIOS:<name>|admin|user,...
//	MSG:<sender>:<room>:<text>
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxLineLength bounds a single protocol line (verb or event).
const MaxLineLength = 4096

// loginPrefix is the only verb whose argument is separated by a space.
const loginPrefix = "Login "

// VerbKind identifies a decoded client request.
type VerbKind int

const (
	VerbUnknown VerbKind = iota
	VerbLogin
	VerbListRooms
	VerbEnterRoom
	VerbExitRoom
	VerbMessage
	VerbCreateRoom
	VerbListUsers
	VerbKickUser
	VerbCloseRoom
	VerbBanUser
	VerbDisconnect
)

// Verb is a decoded client request line.
type Verb struct {
	Kind   VerbKind
	Name   string // login username
	Secret string // login admin secret (may be empty)
	Arg    string // room name, target username or message text
}

// ParseVerb decodes one client line. Unrecognized input yields VerbUnknown
// with the raw command in Arg so the caller can report it.
func ParseVerb(line string) Verb {
	if rest, ok := strings.CutPrefix(line, loginPrefix); ok {
		name, secret, _ := strings.Cut(rest, ":")
		return Verb{Kind: VerbLogin, Name: name, Secret: secret}
	}

	cmd, arg, _ := strings.Cut(line, ":")
	switch cmd {
	case "LISTAR_SALAS":
		return Verb{Kind: VerbListRooms}
	case "ENTRAR_SALA":
		return Verb{Kind: VerbEnterRoom, Arg: arg}
	case "SAIR_SALA":
		return Verb{Kind: VerbExitRoom}
	case "MENSAGEM":
		return Verb{Kind: VerbMessage, Arg: arg}
	case "CRIAR_SALA":
		return Verb{Kind: VerbCreateRoom, Arg: arg}
	case "LISTAR_USUARIOS":
		return Verb{Kind: VerbListUsers}
	case "EXPULSAR":
		return Verb{Kind: VerbKickUser, Arg: arg}
	case "ENCERRAR_SALA":
		return Verb{Kind: VerbCloseRoom, Arg: arg}
	case "BANIR":
		return Verb{Kind: VerbBanUser, Arg: arg}
	case "DESCONECTAR":
		return Verb{Kind: VerbDisconnect}
	default:
		return Verb{Kind: VerbUnknown, Arg: cmd}
	}
}

// RoomInfo is one entry of a SALAS event.
type RoomInfo struct {
	Name  string
	Count int
}

// UserInfo is one entry of a USUARIOS event.
type UserInfo struct {
	Username string
	Admin    bool
}

// Erro encodes an error event.
func Erro(msg string) string { return "ERRO:" + msg }

// Sucesso encodes a success event.
func Sucesso(msg string) string { return "SUCESSO:" + msg }

// Info encodes an informational event.
func Info(msg string) string { return "INFO:" + msg }

// Salas encodes a room listing event: SALAS:<name>|<count>,...
func Salas(rooms []RoomInfo) string {
	var sb strings.Builder
	sb.WriteString("SALAS:")
	for i, r := range rooms {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(r.Name)
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(r.Count))
	}
	return sb.String()
}

// Usuarios encodes a member listing event: USUARIOS:<name>|admin|user,...
func Usuarios(users []UserInfo) string {
	var sb strings.Builder
	sb.WriteString("USUARIOS:")
	for i, u := range users {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(u.Username)
		if u.Admin {
			sb.WriteString("|admin")
		} else {
			sb.WriteString("|user")
		}
	}
	return sb.String()
}

// Msg encodes a chat broadcast event: MSG:<sender>:<room>:<text>
func Msg(sender, room, text string) string {
	return fmt.Sprintf("MSG:%s:%s:%s", sender, room, text)
}

// Event is a decoded server event line, used by the client.
type Event struct {
	Kind    string // ERRO, SUCESSO, INFO, SALAS, USUARIOS, MSG or "" for raw lines
	Payload string
}

// ParseEvent splits a server line into its event kind and payload.
// Lines without a recognized prefix come back with Kind == "".
func ParseEvent(line string) Event {
	kind, payload, ok := strings.Cut(line, ":")
	if !ok {
		return Event{Payload: line}
	}
	switch kind {
	case "ERRO", "SUCESSO", "INFO", "SALAS", "USUARIOS", "MSG":
		return Event{Kind: kind, Payload: payload}
	default:
		return Event{Payload: line}
	}
}
