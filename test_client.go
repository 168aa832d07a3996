package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	status, body, err := request(http.MethodGet, baseURL+"/health", nil, "")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", status, body)

	if len(os.Args) < 3 {
		fmt.Println("Для проверки загрузки кадра запустите: go run test_client.go <путь_к_кадру> <camera_id> [session_id]")
		fmt.Println("Ключ администратора берется из ADMIN_API_KEY")
		return
	}

	imagePath, cameraID := os.Args[1], os.Args[2]
	sessionID := fmt.Sprintf("smoke-%d", time.Now().Unix())
	if len(os.Args) > 3 {
		sessionID = os.Args[3]
	}

	if err := testUpload(imagePath, cameraID, sessionID); err != nil {
		fmt.Printf("Ошибка при загрузке кадра: %v\n", err)
		return
	}

	status, body, err = request(http.MethodGet, baseURL+"/api/results/"+sessionID, nil, "")
	if err != nil {
		fmt.Printf("Ошибка получения результата: %v\n", err)
		return
	}
	fmt.Printf("Результат сессии (статус %d):\n%s\n", status, body)
}

func testUpload(imagePath, cameraID, sessionID string) error {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла кадра: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("ошибка создания form field: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return fmt.Errorf("ошибка записи кадра: %w", err)
	}
	writer.Close()

	query := url.Values{}
	query.Set("session_id", sessionID)
	query.Set("camera_id", cameraID)

	fmt.Printf("Отправляем кадр %s в сессию %s...\n", imagePath, sessionID)
	status, respBody, err := request(http.MethodPost, baseURL+"/api/frames/upload?"+query.Encode(), &body, writer.FormDataContentType())
	if err != nil {
		return err
	}
	fmt.Printf("Ответ загрузки (статус %d):\n%s\n\n", status, respBody)
	return nil
}

func request(method, target string, body io.Reader, contentType string) (int, string, error) {
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return 0, "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
