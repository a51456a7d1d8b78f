// Command atlas-client exercises a running server from the terminal.
//
//	atlas-client analyze photo.jpg
//	atlas-client chat "Tour Eiffel"
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	baseURL := os.Getenv("ATLAS_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: atlas-client analyze <image> | chat <monument>")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = analyze(baseURL, os.Args[2])
	case "chat":
		err = chat(baseURL, strings.Join(os.Args[2:], " "))
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func analyze(baseURL, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/analyze-landmark", body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, respBody, "", "  ") != nil {
		pretty.Write(respBody)
	}
	fmt.Printf("HTTP %d\n%s\n", resp.StatusCode, pretty.String())
	return nil
}

func chat(baseURL, monument string) error {
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		for {
			var frame struct {
				Type    string `json:"type"`
				Reply   string `json:"reply"`
				Message string `json:"message"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				log.Println("Connection closed:", err)
				os.Exit(0)
			}
			if frame.Type == "error" {
				fmt.Printf("\n! %s\n> ", frame.Message)
				continue
			}
			fmt.Printf("\n%s: %s\n> ", monument, frame.Reply)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		os.Exit(0)
	}()

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Ask %s anything (type 'exit' to quit):\n", monument)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "exit" {
			return nil
		}
		if text == "" {
			continue
		}
		if err := conn.WriteJSON(map[string]string{"monument_name": monument, "question": text}); err != nil {
			return fmt.Errorf("send question: %w", err)
		}
	}
}
