// Package events читает поток событий dashboard (Server-Sent Events).
package events

import (
	"bufio"
	"io"
	"strings"
)

// maxFrameSize ограничивает размер одной строки потока
const maxFrameSize = 1 << 20

// Frame одно SSE сообщение
type Frame struct {
	Event string // поле event, по умолчанию "message"
	ID    string
	Data  string // строки data, склеенные через \n
}

// Reader разбирает SSE поток по кадрам
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader создает Reader поверх r
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	return &Reader{scanner: scanner}
}

// Next возвращает следующий кадр с данными.
// Кадры без data (keep-alive комментарии) пропускаются.
// В конце потока возвращает io.EOF.
func (r *Reader) Next() (Frame, error) {
	var (
		frame   Frame
		data    []string
		hasData bool
	)

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if hasData {
				frame.Data = strings.Join(data, "\n")
				if frame.Event == "" {
					frame.Event = "message"
				}
				return frame, nil
			}
			frame = Frame{}
			continue
		}

		// комментарий
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			frame.Event = value
		case "id":
			frame.ID = value
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Frame{}, err
	}

	// Поток оборвался без пустой строки после последнего кадра
	if hasData {
		frame.Data = strings.Join(data, "\n")
		if frame.Event == "" {
			frame.Event = "message"
		}
		return frame, nil
	}
	return Frame{}, io.EOF
}
