// Command client is an interactive terminal client for a Conversa server.
// Slash commands are translated to protocol verbs; bare text is sent as a
// chat message to the current room.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/conversa-chat/conversa/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:12345", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao conectar ao servidor: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	fmt.Printf("Conectado ao servidor %s\n", *addr)
	fmt.Println("Digite /login <nome> [senha] para começar")
	fmt.Println("Digite /ajuda para ver os comandos disponíveis")

	done := make(chan struct{})
	go receive(conn, done)

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(conn)

	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		verb, quit := translate(line)
		if verb != "" {
			fmt.Fprintln(out, verb)
			_ = out.Flush()
		}
		if quit {
			break
		}
	}

	_ = conn.Close()
	<-done
	fmt.Println("Desconectado do servidor.")
}

// translate maps one input line to a protocol verb. An empty verb means the
// command was handled locally; quit signals the session is over.
func translate(line string) (verb string, quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/login":
		name, secret, _ := strings.Cut(arg, " ")
		if name == "" {
			fmt.Println("Uso: /login <nome> [senha]")
			return "", false
		}
		return fmt.Sprintf("Login %s:%s", name, strings.TrimSpace(secret)), false
	case "/salas":
		return "LISTAR_SALAS", false
	case "/entrar":
		return "ENTRAR_SALA:" + arg, false
	case "/sair":
		return "SAIR_SALA", false
	case "/msg":
		return "MENSAGEM:" + arg, false
	case "/criar":
		return "CRIAR_SALA:" + arg, false
	case "/usuarios":
		return "LISTAR_USUARIOS", false
	case "/expulsar":
		return "EXPULSAR:" + arg, false
	case "/encerrar":
		return "ENCERRAR_SALA:" + arg, false
	case "/banir":
		return "BANIR:" + arg, false
	case "/sairServidor", "/quit":
		return "DESCONECTAR", true
	case "/ajuda", "/help":
		showHelp()
		return "", false
	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Println("Comando inválido. Digite /ajuda para ver os comandos disponíveis.")
			return "", false
		}
		// Bare text is a chat message.
		return "MENSAGEM:" + line, false
	}
}

// receive renders server events until the connection closes.
func receive(conn net.Conn, done chan<- struct{}) {
	defer close(done)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 1024), protocol.MaxLineLength)
	for sc.Scan() {
		render(protocol.ParseEvent(strings.TrimRight(sc.Text(), "\r")))
	}
}

func render(ev protocol.Event) {
	switch ev.Kind {
	case "ERRO":
		fmt.Println("[erro] " + ev.Payload)
	case "SUCESSO":
		fmt.Println("[ok] " + ev.Payload)
	case "INFO":
		fmt.Println("[info] " + ev.Payload)
	case "SALAS":
		showRooms(ev.Payload)
	case "USUARIOS":
		showUsers(ev.Payload)
	case "MSG":
		// MSG:<usuario>:<sala>:<conteudo>
		parts := strings.SplitN(ev.Payload, ":", 3)
		if len(parts) == 3 {
			fmt.Printf("[%s] %s: %s\n", parts[1], parts[0], parts[2])
		}
	default:
		fmt.Println(ev.Payload)
	}
}

func showRooms(payload string) {
	fmt.Println("=== SALAS DISPONÍVEIS ===")
	if strings.TrimSpace(payload) == "" {
		fmt.Println("Nenhuma sala disponível")
		return
	}
	for _, entry := range strings.Split(payload, ",") {
		name, count, ok := strings.Cut(entry, "|")
		if ok {
			fmt.Printf("%s (%s usuários)\n", name, count)
		} else {
			fmt.Println(entry)
		}
	}
}

func showUsers(payload string) {
	fmt.Println("=== USUÁRIOS NA SALA ===")
	if strings.TrimSpace(payload) == "" {
		fmt.Println("Sala vazia")
		return
	}
	for _, entry := range strings.Split(payload, ",") {
		name, role, _ := strings.Cut(entry, "|")
		if role == "admin" {
			fmt.Printf("%s (admin)\n", name)
		} else {
			fmt.Println(name)
		}
	}
}

func showHelp() {
	fmt.Println(`
=== COMANDOS DISPONÍVEIS ===
/login <nome> [senha] - Fazer login (use a senha de admin se for administrador)
/salas                - Listar salas disponíveis
/entrar <sala>        - Entrar em uma sala
/sair                 - Sair da sala atual
/msg <mensagem>       - Enviar mensagem na sala (ou digite o texto direto)
/usuarios             - Listar usuários da sala atual
/criar <sala>         - Criar nova sala (apenas admin)
/expulsar <usuario>   - Expulsar usuário da sala (apenas admin)
/encerrar <sala>      - Encerrar uma sala (apenas admin)
/banir <usuario>      - Banir usuário do servidor (apenas admin)
/sairServidor         - Desconectar do servidor
/ajuda                - Mostrar esta ajuda
=============================`)
}
