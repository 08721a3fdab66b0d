package chat

// PlaceholderName 队列为空时结果消息归属的占位名
const PlaceholderName = "user"

// WhisperQueue 已发送、尚未收到结果的私聊目标，先进先出
// 协议里的结果消息不带目标，只能按到达顺序与发送顺序配对：
// 第 n 个未确认的私聊对应第 n 个结果。传输层若重排或丢包，归属会错位
type WhisperQueue struct {
	names []string
}

// Push 在发送私聊请求之前调用
func (q *WhisperQueue) Push(name string) {
	q.names = append(q.names, name)
}

// PopFront 取出最早的目标；为空时返回 false
func (q *WhisperQueue) PopFront() (string, bool) {
	if len(q.names) == 0 {
		return "", false
	}
	name := q.names[0]
	q.names[0] = ""
	q.names = q.names[1:]
	return name, true
}

// DropBack 撤销最近一次 Push（请求未能发出时调用）
func (q *WhisperQueue) DropBack() {
	if n := len(q.names); n > 0 {
		q.names[n-1] = ""
		q.names = q.names[:n-1]
	}
}

func (q *WhisperQueue) Len() int { return len(q.names) }

// Reset 断线时清空
func (q *WhisperQueue) Reset() { q.names = nil }
