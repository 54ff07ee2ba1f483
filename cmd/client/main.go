package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	v1 "github.com/PaulBabatuyi/biovault/internal/api/vaultv1"
	"github.com/PaulBabatuyi/biovault/internal/auth"
)

const chunkSize = 64 * 1024 // 64KB chunks

type VaultClient struct {
	client v1.VaultServiceClient
	token  string
}

func NewVaultClient(addr, token string) (*VaultClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &VaultClient{
		client: v1.NewVaultServiceClient(conn),
		token:  token,
	}, nil
}

func (vc *VaultClient) authed(ctx context.Context) context.Context {
	if vc.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+vc.token)
}

// Login exchanges a capture-engine assertion for a session token.
func (vc *VaultClient) Login(ctx context.Context, assertion, userID string) (*v1.LoginResponse, error) {
	resp, err := vc.client.Login(ctx, &v1.LoginRequest{
		Assertion:     assertion,
		ClaimedUserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if !resp.Verified {
		return nil, errors.New("biometric verification failed")
	}
	return resp, nil
}

// UploadFile streams a file to the server
func (vc *VaultClient) UploadFile(ctx context.Context, filePath string) (*v1.UploadFileResponse, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	stream, err := vc.client.UploadFile(vc.authed(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	err = stream.Send(&v1.UploadFileRequest{
		Metadata: &v1.UploadMetadata{Filename: fileInfo.Name()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send metadata: %w", err)
	}

	buffer := make([]byte, chunkSize)
	totalSent := int64(0)
	for {
		n, err := file.Read(buffer)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}

		if err := stream.Send(&v1.UploadFileRequest{Chunk: buffer[:n]}); err != nil {
			return nil, fmt.Errorf("failed to send chunk: %w", err)
		}

		totalSent += int64(n)
		printProgress("Uploading", totalSent, fileInfo.Size())
	}
	fmt.Println()

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}
	return resp, nil
}

// DownloadFile streams owner's file into outputPath
func (vc *VaultClient) DownloadFile(ctx context.Context, owner, filename, outputPath string) error {
	stream, err := vc.client.DownloadFile(vc.authed(ctx), &v1.DownloadFileRequest{
		Owner:    owner,
		Filename: filename,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	first, err := stream.Recv()
	if err != nil {
		return fmt.Errorf("failed to receive file info: %w", err)
	}
	if first.Info == nil {
		return errors.New("expected file info in first message")
	}
	info := first.Info
	fmt.Printf("Downloading: %s (%s, %d bytes)\n", info.Filename, info.ContentType, info.Size)

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	totalReceived := int64(0)
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to receive chunk: %w", err)
		}

		n, err := outFile.Write(msg.Chunk)
		if err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
		totalReceived += int64(n)
		printProgress("Downloading", totalReceived, info.Size)
	}
	fmt.Println()
	return nil
}

func (vc *VaultClient) Dashboard(ctx context.Context) (*v1.DashboardResponse, error) {
	resp, err := vc.client.Dashboard(vc.authed(ctx), &v1.DashboardRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return resp, nil
}

func (vc *VaultClient) DeleteFile(ctx context.Context, filename string) (*v1.DeleteFileResponse, error) {
	resp, err := vc.client.DeleteFile(vc.authed(ctx), &v1.DeleteFileRequest{Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("failed to delete file: %w", err)
	}
	return resp, nil
}

func (vc *VaultClient) Activity(ctx context.Context, limit int) (*v1.ListActivityResponse, error) {
	resp, err := vc.client.ListActivity(vc.authed(ctx), &v1.ListActivityRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return resp, nil
}

func (vc *VaultClient) Logout(ctx context.Context) error {
	if _, err := vc.client.Logout(vc.authed(ctx), &v1.LogoutRequest{}); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func printProgress(label string, done, total int64) {
	if total <= 0 {
		return
	}
	fmt.Printf("\r%s: %.2f%%", label, float64(done)/float64(total)*100)
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: client [flags] <command> [args]

commands:
  login <user-id>                 sign in (needs -assertion or -assertion-secret)
  logout
  upload <path>
  download <owner> <filename> [out]
  dashboard
  delete <filename>
  activity [limit]

flags:
`)
	flag.PrintDefaults()
}

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	token := flag.String("token", os.Getenv("BIOVAULT_TOKEN"), "session token (defaults to $BIOVAULT_TOKEN)")
	assertion := flag.String("assertion", "", "capture-engine assertion for login")
	assertionSecret := flag.String("assertion-secret", os.Getenv("BIOVAULT_AUTH_ASSERTION_SECRET"), "sign a local assertion with this secret (development only)")
	issuer := flag.String("issuer", "capture-engine", "issuer used when signing a local assertion")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall request timeout")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client, err := NewVaultClient(*addr, *token)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "login":
		need(rest, 1)
		a := *assertion
		if a == "" && *assertionSecret != "" {
			a, err = auth.SignAssertion([]byte(*assertionSecret), *issuer, rest[0], true, time.Minute)
			if err != nil {
				log.Fatalf("Failed to sign assertion: %v", err)
			}
		}
		resp, err := client.Login(ctx, a, rest[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("✓ Logged in as %s (expires %s)\n", resp.UserID, resp.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("export BIOVAULT_TOKEN=%s\n", resp.Token)

	case "logout":
		if err := client.Logout(ctx); err != nil {
			log.Fatal(err)
		}
		fmt.Println("✓ Logged out")

	case "upload":
		need(rest, 1)
		resp, err := client.UploadFile(ctx, rest[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("✓ Uploaded: %s (ID: %d, %s)\n", resp.Filename, resp.ID, resp.SizeDisplay)

	case "download":
		need(rest, 2)
		out := filepath.Base(rest[1])
		if len(rest) > 2 {
			out = rest[2]
		}
		if err := client.DownloadFile(ctx, rest[0], rest[1], out); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("✓ Saved to %s\n", out)

	case "dashboard":
		resp, err := client.Dashboard(ctx)
		if err != nil {
			log.Fatal(err)
		}
		s := resp.Stats
		fmt.Printf("Storage: %s (%.0f%% of quota)\n", s.TotalDisplay, s.QuotaPercent)
		fmt.Printf("Images: %d  Videos: %d  Documents: %d  Secrets: %d\n", s.Images, s.Videos, s.Documents, s.Secrets)
		for i, f := range resp.Files {
			fmt.Printf("  %d. %s (%s, %s)\n", i+1, f.Filename, f.SizeDisplay, f.UploadedAt.Format(time.RFC3339))
		}

	case "delete":
		need(rest, 1)
		resp, err := client.DeleteFile(ctx, rest[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("✓ %s: %d row(s) removed\n", resp.Status, resp.Rows)
		for _, p := range resp.Orphans {
			fmt.Printf("  orphaned: %s\n", p)
		}

	case "activity":
		limit := 0
		if len(rest) > 0 {
			if _, err := fmt.Sscanf(rest[0], "%d", &limit); err != nil {
				log.Fatalf("invalid limit %q", rest[0])
			}
		}
		resp, err := client.Activity(ctx, limit)
		if err != nil {
			log.Fatal(err)
		}
		for _, e := range resp.Entries {
			fmt.Printf("%s  %-6s  %s\n", e.Timestamp.Format(time.RFC3339), e.Action, e.Details)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func need(args []string, n int) {
	if len(args) < n {
		usage()
		os.Exit(2)
	}
}
