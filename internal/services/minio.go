package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"autostore_back_end/internal/database"
)

// UploadVehicleImage stocke l'image dans MinIO et renvoie son URL publique.
// Le nom de l'objet est préfixé par un UUID pour éviter les collisions.
func UploadVehicleImage(ctx context.Context, vehicleID int, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "vehicles"
	}
	objectName := fmt.Sprintf("%d/%s%s", vehicleID, uuid.NewString(), path.Ext(file.Filename))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectName), nil
}
