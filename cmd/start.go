/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/handler"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the document QA server",
	Long:  `Starts the HTTP server exposing upload, document catalog and chat endpoints`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		aiService, embedder, err := newAIProvider(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}

		// An index that fails to initialize leaves the service in degraded
		// mode: uploads still record registry metadata and chat returns an
		// advisory message instead of answers.
		var index database.VectorIndex
		switch cfg.VectorStore {
		case "memory":
			index = database.NewMemoryIndex(embedder)
		default:
			weaviateIndex, err := database.NewWeaviateIndex(cfg.WeaviateStoreConfig, embedder)
			if err != nil {
				log.Printf("Failed to connect to Weaviate, starting in degraded mode: %v", err)
			} else {
				index = weaviateIndex
			}
		}

		chunkService := service.NewChunkService(types.ChunkServiceConfig{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
		repo := repository.NewDocumentRepo()
		documentService := service.NewDocumentService(
			cfg.UploadDir,
			service.NewExtractService(),
			chunkService,
			index,
			repo,
		)
		chatService := service.NewChatService(index, repo, aiService, cfg.TopK, cfg.RequestTimeout)
		wsService := service.NewWebSocketService(chatService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(documentService)
		documentHandler := handler.NewDocumentHandler(documentService)
		chatHandler := handler.NewChatHandler(chatService)

		// Setup routes
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/upload", uploadHandler.HandleUpload())
		mux.HandleFunc("/api/v1/documents", documentHandler.HandleDocuments())
		mux.HandleFunc("/api/v1/chat", chatHandler.HandleChat())
		mux.HandleFunc("/api/v1/chat/ws", wsService.HandleChat)
		mux.Handle("/api/v1/health", wsService.Health())

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, corsHandler.CorsMiddleware(mux)); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

// newAIProvider builds the configured language-model collaborator. Both
// providers also serve as the embedding collaborator for the vector index.
func newAIProvider(cfg *config.Config) (service.AIService, database.Embedder, error) {
	switch cfg.AIProvider {
	case "gemini":
		gemini, err := service.NewGeminiService([]string{cfg.GeminiAPIKey}, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini, nil
	default:
		openAI := service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel)
		return openAI, openAI, nil
	}
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
}
