package deployment

import "context"

// ------------------------------------------------------
// Repository Port for Deployment (deployments テーブル)
// ------------------------------------------------------
//
// パイプライン終了後のアーカイブ保存用アウトバウンドポート。
// Firestore / Postgres の具体実装は adapters/out 側が担当する。

// RepositoryPort persists finished deployment runs.
type RepositoryPort interface {
	// Save:
	// - d.ID が空文字の場合、実装側で採番して返却しても構いません。
	// - 保存はベストエフォート契約: 呼び出し側はエラーを記録するだけで
	//   パイプラインの結果には影響させません。
	Save(ctx context.Context, d Deployment) (Deployment, error)
}
