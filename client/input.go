package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"manaclient/being"
)

// CommandType 控制台命令类型
type CommandType int

const (
	CmdTalk CommandType = iota
	CmdWhisper
	CmdName
	CmdIgnoreAll
)

// ErrBadCommand 控制台输入无法解析
var ErrBadCommand = errors.New("client: bad command")

// Command 用户输入（意图），在 Tick 中解释执行
type Command struct {
	Type   CommandType
	Nick   string
	Text   string
	Target being.ActorID
	Ignore bool
}

// ParseCommand 解析一行控制台输入
// 示例：/w Alice hi、/name 150000、/ignoreall on、普通文本为公共聊天
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "/") {
		if strings.TrimSpace(line) == "" {
			return Command{}, fmt.Errorf("%w: empty line", ErrBadCommand)
		}
		return Command{Type: CmdTalk, Text: line}, nil
	}
	verb, rest, _ := strings.Cut(line[1:], " ")
	switch strings.ToLower(verb) {
	case "w", "whisper":
		nick, text, ok := strings.Cut(strings.TrimLeft(rest, " "), " ")
		if !ok || nick == "" || text == "" {
			return Command{}, fmt.Errorf("%w: usage /w <nick> <text>", ErrBadCommand)
		}
		return Command{Type: CmdWhisper, Nick: nick, Text: text}, nil
	case "name":
		id, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("%w: usage /name <id>", ErrBadCommand)
		}
		return Command{Type: CmdName, Target: being.ActorID(id)}, nil
	case "ignoreall":
		switch strings.ToLower(strings.TrimSpace(rest)) {
		case "on":
			return Command{Type: CmdIgnoreAll, Ignore: true}, nil
		case "off":
			return Command{Type: CmdIgnoreAll, Ignore: false}, nil
		}
		return Command{}, fmt.Errorf("%w: usage /ignoreall on|off", ErrBadCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown command /%s", ErrBadCommand, verb)
	}
}

// OnInput 入站命令（不立即执行），等下一次 Tick 处理
func (s *Session) OnInput(cmd Command) bool {
	// 不阻塞：拥塞时丢弃，保证 Tick 准时
	select {
	case s.inputChan <- cmd:
		return true
	default:
		s.log.Warnf("input queue full, dropping command %d", cmd.Type)
		return false
	}
}

// ProcessInputs 处理当前帧的所有命令与逻辑线程调用（非阻塞 drain）
func (s *Session) ProcessInputs() {
	for {
		select {
		case fn := <-s.calls:
			fn()
		case cmd := <-s.inputChan:
			if err := s.apply(cmd); err != nil {
				s.log.Warnf("command: %v", err)
			}
		default:
			return
		}
	}
}

func (s *Session) apply(cmd Command) error {
	switch cmd.Type {
	case CmdTalk:
		return s.chat.Talk(cmd.Text)
	case CmdWhisper:
		return s.chat.Whisper(cmd.Nick, cmd.Text)
	case CmdName:
		s.engine.RequestName(cmd.Target)
		return nil
	case CmdIgnoreAll:
		return s.chat.IgnoreAll(cmd.Ignore)
	default:
		return fmt.Errorf("%w: type %d", ErrBadCommand, cmd.Type)
	}
}

// ReadConsole 逐行读取控制台输入并投递给会话，直到 EOF 或 ctx 取消
func (s *Session) ReadConsole(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cmd, err := ParseCommand(sc.Text())
		if err != nil {
			s.log.Infof("%v", err)
			continue
		}
		s.OnInput(cmd)
	}
	return sc.Err()
}
