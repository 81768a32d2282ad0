// Package watcher 监听目录中新建或写入的文件。
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// defaultSettle 是文件最后一次写入后需要保持静止的时间。
const defaultSettle = time.Second

// Watcher 是对 fsnotify.Watcher 的封装，只上报指定扩展名的文件。
// 同一路径的连续 Create/Write 事件合并，文件静止 settle 之后才上报一次。
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration
}

// New 创建一个新的 Watcher。extensions 为空时只关注 .pdf。
func New(extensions ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf"}
	}
	return &Watcher{watcher: w, extensions: extensions, settle: defaultSettle}, nil
}

// Watch 开始监听 dir，返回写入完成的文件路径。ctx 结束时通道关闭。
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	paths := make(chan string, 100)
	go func() {
		defer close(paths)

		// path -> 可以上报的时间
		pending := make(map[string]time.Time)
		ticker := time.NewTicker(w.settle / 4)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.matches(event.Name) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				pending[event.Name] = time.Now().Add(w.settle)
			case now := <-ticker.C:
				for path, due := range pending {
					if now.Before(due) {
						continue
					}
					delete(pending, path)
					select {
					case paths <- path:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("[Watcher] 目录监听错误: %v", err)
			}
		}
	}()
	return paths, nil
}

// Close 停止监听。
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
