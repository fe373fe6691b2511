package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

func newWatchCommand(opts *RootOptions) *cobra.Command {
	var (
		queue     string
		temporary bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "订阅并打印目录变更事件(Ctrl+C退出)",
		Long: `订阅RabbitMQ上的目录变更事件(book.created、book.borrowed等)并逐行打印。

默认使用配置中的mq.queue(持久化队列,离线期间的事件不会丢失);
--temporary 使用临时队列,只接收订阅之后的事件。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if queue == "" {
				queue = a.cfg.MQ.Queue
			}
			if temporary {
				queue = ""
			}

			consumer, err := mq.NewConsumer(a.cfg.MQ.URL, a.cfg.MQ.Exchange, "topic", queue,
				[]string{messaging.RoutingKeyAll}, a.logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			p := newPrinter(opts, cmd.OutOrStdout())
			return messaging.Watch(commandContext(cmd), consumer, func(e book.Event) error {
				return p.print(e, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, messaging.Describe(e))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "队列名(默认使用配置mq.queue)")
	cmd.Flags().BoolVar(&temporary, "temporary", false, "使用临时队列")
	return cmd
}
